// Command principal-lookup queries the principal query service the way a
// sibling service would.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/BIGM16/Ecole-desExcellents/internal/clients"
	"github.com/BIGM16/Ecole-desExcellents/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("principal-lookup: %v", err)
	}
}

func run(args []string) error {
	cfg := config.Load()

	flagSet := pflag.NewFlagSet("principal-lookup", pflag.ContinueOnError)
	addr := flagSet.String("addr", cfg.GRPCAddr, "principal query service address")
	existsOnly := flagSet.Bool("exists", false, "only report whether the principal exists")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: principal-lookup [--addr host:port] [--exists] <principal-id>")
	}
	if *addr == "" {
		return errors.New("--addr or GRPC_ADDR is required")
	}
	id := flagSet.Arg(0)

	ctx := context.Background()
	c, err := clients.New(ctx, *addr, cfg.ServiceAuthToken, cfg.GRPCDialTimeout)
	if err != nil {
		return err
	}
	defer c.Close()

	callCtx, cancel := context.WithTimeout(ctx, cfg.GRPCDialTimeout)
	defer cancel()

	if *existsOnly {
		ok, err := c.Principals.Exists(callCtx, id)
		if err != nil {
			return err
		}
		fmt.Println(ok)
		return nil
	}

	principal, err := c.Principals.GetPrincipal(callCtx, id)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("principal %s not found", id)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(principal)
}
