// Code scaffolded by goctl. Safe to edit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"
	"google.golang.org/grpc"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/gc/cleanup"
	"github.com/meetmesh/control-plane/internal/gc/config"
	"github.com/meetmesh/control-plane/internal/gc/grpcserver"
	"github.com/meetmesh/control-plane/internal/gc/handler"
	"github.com/meetmesh/control-plane/internal/gc/health"
	"github.com/meetmesh/control-plane/internal/gc/svc"
	"github.com/meetmesh/control-plane/internal/pb/gcpb"
)

var configFile = flag.String("f", "etc/gc.yaml", "the config file")

func main() {
	flag.Parse()
	cperr.RegisterHTTPErrorHandler()

	var c config.Config
	conf.MustLoad(*configFile, &c)

	svcCtx, err := svc.NewServiceContext(c)
	if err != nil {
		log.Fatalf("building service context: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := svcCtx.Start(ctx); err != nil {
		log.Fatalf("acquiring initial service token: %v", err)
	}

	go health.NewSweeper(svcCtx.Repo, c.Placement.StalenessThreshold, c.Placement.StalenessThreshold).Run(ctx)
	go cleanup.NewSweeper(svcCtx.Repo, cleanup.Config{
		Interval:         c.Placement.CleanupInterval,
		InactivityWindow: c.Placement.InactivityWindow,
		RetentionWindow:  c.Placement.RetentionWindow,
	}).Run(ctx)

	lis, err := net.Listen("tcp", c.GRPC.ListenOn)
	if err != nil {
		log.Fatalf("binding grpc listener: %v", err)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.AuthInterceptor(svcCtx.Verifier)))
	gcpb.RegisterGlobalControllerServiceServer(grpcServer, grpcserver.New(svcCtx.Repo))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("grpc server stopped: %v", err)
		}
	}()

	server := rest.MustNewServer(c.RestConf, rest.WithCors("*"))
	defer server.Stop()
	handler.RegisterHandlers(server, svcCtx)

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
		os.Exit(0)
	}()

	fmt.Printf("Starting GC at %s:%d (grpc %s)...\n", c.Host, c.Port, c.GRPC.ListenOn)
	server.Start()
}
