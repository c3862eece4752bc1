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
	"github.com/meetmesh/control-plane/internal/mc/config"
	"github.com/meetmesh/control-plane/internal/mc/grpcserver"
	"github.com/meetmesh/control-plane/internal/mc/handler"
	"github.com/meetmesh/control-plane/internal/mc/svc"
	"github.com/meetmesh/control-plane/internal/pb/mcpb"
)

var configFile = flag.String("f", "etc/mc.yaml", "the config file")

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
		log.Fatalf("starting up: %v", err)
	}
	go svcCtx.Registrar.Run(ctx)

	lis, err := net.Listen("tcp", c.GRPC.ListenOn)
	if err != nil {
		log.Fatalf("binding grpc listener: %v", err)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.AuthInterceptor(svcCtx.Verifier)))
	mcpb.RegisterMeetingControllerServiceServer(grpcServer, grpcserver.New(svcCtx.Controller, c.MaxMeetings, c.MaxParticipants, func() int { return 0 }))
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
		svcCtx.Controller.Drain(c.ShutdownBudget)
		grpcServer.GracefulStop()
		os.Exit(0)
	}()

	fmt.Printf("Starting MC at %s:%d (grpc %s)...\n", c.Host, c.Port, c.GRPC.ListenOn)
	server.Start()
}
