// Code scaffolded by goctl. Safe to edit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"

	"github.com/meetmesh/control-plane/internal/ac/config"
	"github.com/meetmesh/control-plane/internal/ac/handler"
	"github.com/meetmesh/control-plane/internal/ac/svc"
	"github.com/meetmesh/control-plane/internal/common/cperr"
)

var configFile = flag.String("f", "etc/ac.yaml", "the config file")

func main() {
	flag.Parse()
	cperr.RegisterHTTPErrorHandler()

	var c config.Config
	conf.MustLoad(*configFile, &c)

	svcCtx, err := svc.NewServiceContext(c)
	if err != nil {
		log.Fatalf("building service context: %v", err)
	}

	bootstrapCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svcCtx.Keys.Bootstrap(bootstrapCtx); err != nil {
		log.Fatalf("bootstrapping signing keys: %v", err)
	}

	server := rest.MustNewServer(c.RestConf, rest.WithCors("*"))
	defer server.Stop()

	handler.RegisterHandlers(server, svcCtx)

	fmt.Printf("Starting AC at %s:%d...\n", c.Host, c.Port)
	server.Start()
}
