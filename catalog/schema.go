package catalog

// CatalogSchema is the fixed schema of every catalog row (spec.md §4.1),
// the Go equivalent of sys_catalog.cc's BuildTableSchema. It is never
// persisted column-by-column; it exists so Load can compare the schema it
// finds on disk against this canonical definition.
type CatalogSchema struct {
	EntryTypeColumn string // "entry_type", int8, non-null, key
	EntryIDColumn   string // "entry_id", string, non-null, key
	MetadataColumn  string // "metadata", string, non-null, value
}

// canonicalSchema is the one and only schema the catalog tablet ever has.
var canonicalSchema = CatalogSchema{
	EntryTypeColumn: "entry_type",
	EntryIDColumn:   "entry_id",
	MetadataColumn:  "metadata",
}

// canonicalSchemaVersion is compared against fs.TabletMetadata.SchemaVersion
// on Load; the core has no schema migration (spec.md §4.1), so any mismatch
// is corruption.
const canonicalSchemaVersion = 1

// canonicalPartitionSchema is the opaque partition-schema marker persisted
// alongside the tablet metadata: the catalog tablet is always a single,
// unsplit partition, so there is nothing to encode beyond this constant.
const canonicalPartitionSchema = "single-partition"

func (s CatalogSchema) Equals(other CatalogSchema) bool {
	return s == other
}

// buildPartitionSchema derives the single-partition partition schema from
// an empty split specification, per spec.md §4.3 step 1 (sys_catalog.cc
// CreateNew: "partition_schema.CreatePartitions(split_rows, {}, ...)").
// The catalog tablet is never split, so this always yields exactly one
// partition spanning the whole keyspace.
func buildPartitionSchema() []Partition {
	return []Partition{{}}
}
