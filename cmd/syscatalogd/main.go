// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/coredb/syscatalog/catalog"
	"github.com/coredb/syscatalog/consensus"
	syscatalogerrors "github.com/coredb/syscatalog/errors"
	"github.com/coredb/syscatalog/fs"
	"github.com/coredb/syscatalog/kvstore"
	"github.com/coredb/syscatalog/metrics"
	"github.com/coredb/syscatalog/quorum"
	syscataloggrpc "github.com/coredb/syscatalog/rpc"
	"github.com/coredb/syscatalog/tablet"

	"github.com/cubefs/cubefs/blobstore/common/config"
	"github.com/cubefs/cubefs/blobstore/common/profile"
	"github.com/cubefs/cubefs/blobstore/common/rpc"
	"github.com/cubefs/cubefs/blobstore/util/log"
	"google.golang.org/grpc"
)

// Config is the on-disk process config, the system-catalog analogue of the
// teacher's cmd/cmd.go Config.
type Config struct {
	HttpBindPort  uint32    `json:"http_bind_port"`
	GrpcBindPort  uint32    `json:"grpc_bind_port"`
	MaxProcessors int       `json:"max_processors"`
	LogLevel      log.Level `json:"log_level"`

	DataDir          string                         `json:"data_dir"`
	LocalUUID        string                         `json:"local_uuid"`
	MasterAddresses  []string                       `json:"master_addresses"`
	Transport        syscataloggrpc.TransportConfig `json:"transport"`
	WriteConcurrency uint32                         `json:"write_concurrency"`

	// SysCatalogFailDuringWrite is spec.md §6's hidden fault-injection
	// knob, loaded like any other config field in this tree (there is no
	// gflags-style "hidden" marker in the pack; see DESIGN.md).
	SysCatalogFailDuringWrite float64 `json:"sys_catalog_fail_during_write"`
}

func main() {
	config.Init("f", "", "syscatalogd.json")

	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		log.Fatalf("load config failed: %s", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./run/data"
	}
	if cfg.LocalUUID == "" {
		log.Fatalf("local_uuid must be set")
	}

	registerLogLevel()
	modifyOpenFiles()
	log.SetOutputLevel(cfg.LogLevel)
	if cfg.MaxProcessors > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcessors)
	}
	catalog.SetFailDuringWrite(cfg.SysCatalogFailDuringWrite)

	ctx := context.Background()

	kv, err := kvstore.NewKVStore(ctx, cfg.DataDir, kvstore.RocksdbLsmKVType, &kvstore.Option{
		CreateIfMissing: true,
		ColumnFamily:    []kvstore.CF{fs.LocalCF, tablet.RowCF, consensus.RaftWalCF},
	})
	if err != nil {
		log.Fatalf("open kv store at %s failed: %s", cfg.DataDir, err)
	}

	engine, err := tablet.NewKVEngine(kv)
	if err != nil {
		log.Fatalf("init tablet engine failed: %s", err)
	}

	messenger := syscataloggrpc.NewMessenger(syscataloggrpc.Config{Transport: cfg.Transport})
	defer messenger.Close()
	raftTransport := syscataloggrpc.NewRaftTransport(messenger)

	sys := catalog.New(catalog.Config{
		LocalUUID:       cfg.LocalUUID,
		MasterAddresses: parseMasterAddresses(cfg.MasterAddresses),
		Messenger:       messenger,
		Transport:       raftTransport,
		TickInterval:     100 * time.Millisecond,
		TruncateEvery:    10000,
		WriteConcurrency: cfg.WriteConcurrency,
		ElectedLeader: func() error {
			log.Infof("this master is now the catalog tablet leader")
			return nil
		},
	}, kv, engine)

	if err := bootstrapCatalog(ctx, sys); err != nil {
		log.Fatalf("bootstrap system catalog failed: %s", err)
	}

	grpcServer := newGRPCServer(cfg.LocalUUID, sys.RaftServer())
	grpcListener, err := net.Listen("tcp", ":"+strconv.Itoa(int(cfg.GrpcBindPort)))
	if err != nil {
		log.Fatalf("listen grpc port failed: %s", err)
	}
	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Errorf("grpc server exited: %s", err)
		}
	}()

	httpServer := newHTTPServer(cfg.HttpBindPort)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	<-ch

	grpcServer.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	sys.Shutdown()
}

// bootstrapCatalog implements the master's CreateNew-or-Load choice: Load
// if tablet metadata is already on disk, CreateNew on first boot.
func bootstrapCatalog(ctx context.Context, sys *catalog.System) error {
	err := sys.Load(ctx)
	if syscatalogerrors.CodeOf(err) == syscatalogerrors.NotFound {
		return sys.CreateNew(ctx)
	}
	return err
}

func parseMasterAddresses(addrs []string) []quorum.Address {
	out := make([]quorum.Address, 0, len(addrs))
	for _, a := range addrs {
		host, portStr, err := net.SplitHostPort(a)
		if err != nil {
			log.Fatalf("invalid master address %q: %s", a, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			log.Fatalf("invalid master address port %q: %s", a, err)
		}
		out = append(out, quorum.Address{Host: host, Port: port})
	}
	return out
}

type localDiscoveryServer struct {
	uuid string
}

func (s *localDiscoveryServer) GetPermanentUUID(ctx context.Context, req *syscataloggrpc.GetPermanentUUIDRequest) (*syscataloggrpc.GetPermanentUUIDResponse, error) {
	return &syscataloggrpc.GetPermanentUUIDResponse{PermanentUUID: s.uuid}, nil
}

func newGRPCServer(localUUID string, raftServer syscataloggrpc.RaftServer) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(metrics.GRPCMetrics.UnaryServerInterceptor()),
	)
	syscataloggrpc.RegisterDiscoveryServer(srv, &localDiscoveryServer{uuid: localUUID})
	syscataloggrpc.RegisterRaftServer(srv, raftServer)
	metrics.GRPCMetrics.InitializeMetrics(srv)
	return srv
}

func newHTTPServer(port uint32) *http.Server {
	addr := ":" + strconv.Itoa(int(port))
	ph := profile.NewProfileHandler(addr)

	rpc.GET("/stats", func(c *rpc.Context) { c.RespondStatus(http.StatusOK) })

	httpServer := &http.Server{
		Addr:    addr,
		Handler: rpc.MiddlewareHandlerWith(rpc.DefaultRouter, ph),
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server exited: %s", err)
		}
	}()
	log.Info("http server is running at:", addr)
	return httpServer
}

func registerLogLevel() {
	logLevelPath, logLevelHandler := log.ChangeDefaultLevelHandler()
	profile.HandleFunc(http.MethodPost, logLevelPath, func(c *rpc.Context) {
		logLevelHandler.ServeHTTP(c.Writer, c.Request)
	})
	profile.HandleFunc(http.MethodGet, logLevelPath, func(c *rpc.Context) {
		logLevelHandler.ServeHTTP(c.Writer, c.Request)
	})
}

func modifyOpenFiles() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Fatalf("getting rlimit failed: %s", err)
	}
	if rLimit.Cur >= 102400 && rLimit.Max >= 102400 {
		return
	}
	rLimit.Cur = 1024000
	rLimit.Max = 1024000
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Fatalf("setting rlimit failed: %s", err)
	}
}

