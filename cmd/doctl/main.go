// Command doctl exercises the durable object HTTP API from the shell.
//
// Usage:
//
//	doctl -config configs/dotail.local.yaml list
//	doctl -config ... init <object-id> [json]
//	doctl -config ... call <object-id> <method> [json]
//	doctl -config ... get <object-id> <key>
//	doctl -config ... put <object-id> <key> <json>
//	doctl -config ... delete <object-id> <key>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/edgeobj/dobject-go/config"
	"github.com/edgeobj/dobject-go/dobject"
	"github.com/edgeobj/dobject-go/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dotail.local.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fatal("load config: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		fatal("missing command, expected one of: list, init, call, get, put, delete")
	}

	client := dobject.NewClient(
		cfg.Service.BaseURL,
		cfg.Service.APIKey,
		dobject.WithTimeout(cfg.Service.Timeout),
		dobject.WithRetries(cfg.Service.MaxRetries, time.Second),
		dobject.WithLogger(logger),
	)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Service.Timeout)
	defer cancel()

	if err := dispatch(ctx, client, args); err != nil {
		fatal("%v", err)
	}
}

func dispatch(ctx context.Context, client *dobject.Client, args []string) error {
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "list":
		infos, err := client.ListObjects(ctx)
		if err != nil {
			return err
		}
		return printJSON(infos)

	case "init":
		if len(rest) < 1 {
			return errors.New("usage: init <object-id> [json]")
		}
		data, err := optionalJSON(rest, 1)
		if err != nil {
			return err
		}
		return client.Init(ctx, rest[0], data)

	case "call":
		if len(rest) < 2 {
			return errors.New("usage: call <object-id> <method> [json]")
		}
		args, err := optionalJSON(rest, 2)
		if err != nil {
			return err
		}
		result, err := client.Call(ctx, rest[0], rest[1], args)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "get":
		if len(rest) != 2 {
			return errors.New("usage: get <object-id> <key>")
		}
		value, err := client.GetState(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		return printJSON(value)

	case "put":
		if len(rest) != 3 {
			return errors.New("usage: put <object-id> <key> <json>")
		}
		var value json.RawMessage
		if err := json.Unmarshal([]byte(rest[2]), &value); err != nil {
			return fmt.Errorf("parse value: %w", err)
		}
		return client.PutState(ctx, rest[0], rest[1], value)

	case "delete":
		if len(rest) != 2 {
			return errors.New("usage: delete <object-id> <key>")
		}
		return client.DeleteState(ctx, rest[0], rest[1])

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// optionalJSON parses args[idx] as JSON when present, nil otherwise.
func optionalJSON(args []string, idx int) (any, error) {
	if len(args) <= idx {
		return nil, nil
	}
	var data json.RawMessage
	if err := json.Unmarshal([]byte(args[idx]), &data); err != nil {
		return nil, fmt.Errorf("parse json argument: %w", err)
	}
	return data, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "doctl: "+format+"\n", args...)
	os.Exit(1)
}
