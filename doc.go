/*
 *
 * Copyright 2023 CubeFS authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

/*

# syscatalog: a replicated system catalog tablet

## What this is

A small, single-partition, fixed-schema table (two logical row kinds: TABLE
and TABLET) that every master in a cluster replicates via raft. It exists
to answer one question consistently across masters: what tables and
tablets does this cluster have, and who holds them.

## Data Model

* Table, a named, schema-carrying object going through
  Preparing -> Running -> Deleting -> Deleted.

* Tablet, one partition of a table, pinned to a fixed replica set and
  carrying its own lifecycle state.

Both kinds are rows in the same underlying key-value engine, distinguished
by a leading entry-type byte so that a full scan of either kind is a
single contiguous range.

## Architecture

A single raft group (the "catalog tablet") spans every master in the
cluster. On first boot a master either creates this group fresh
(resolving the permanent UUID of every configured peer over gRPC first)
or loads it back from local disk and verifies the on-disk configuration
still matches the configured addresses.

### Replication

A single etcd-raft group, proposals are rows (table/tablet inserts,
updates, deletes) applied in order to the underlying key-value engine.

### Storage

Rocksdb-backed, column families separate raft WAL, local process state,
and catalog rows.

### Fault injection

A configurable probability of failing a write right before it is
proposed, for exercising masters under simulated catalog write failures.

## Building Blocks

* gRPC
* etcd/raft
* Rocksdb
* Prometheus

*/

package syscatalog
