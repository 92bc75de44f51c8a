package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/config"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/n8n"
)

const usage = `usage: n8nctl <command> [args]

commands:
  list                       list workflows
  get <id>                   print a workflow as JSON
  import <file.json>         create a workflow from an exported file
  activate <id>              activate a workflow
  deactivate <id>            deactivate a workflow
  executions <id> [limit]    show the latest executions of a workflow`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.N8N.APIKey == "" {
		log.Fatal("N8N_API_KEY is required")
	}

	client := n8n.NewClient(cfg.N8N.BaseURL, cfg.N8N.APIKey, 30*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, client, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, c *n8n.Client, cmd string, args []string) error {
	switch cmd {
	case "list":
		wfs, err := c.ListWorkflows(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tACTIVE\tNAME")
		for _, wf := range wfs {
			fmt.Fprintf(tw, "%s\t%t\t%s\n", wf.ID, wf.Active, wf.Name)
		}
		return tw.Flush()

	case "get":
		if len(args) < 1 {
			return fmt.Errorf("usage: n8nctl get <id>")
		}
		wf, err := c.GetWorkflow(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(wf)

	case "import":
		if len(args) < 1 {
			return fmt.Errorf("usage: n8nctl import <file.json>")
		}
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var wf n8n.Workflow
		if err := json.Unmarshal(raw, &wf); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		created, err := c.CreateWorkflow(ctx, wf)
		if err != nil {
			return err
		}
		log.Printf("imported %q as %s (inactive)", created.Name, created.ID)
		return nil

	case "activate", "deactivate":
		if len(args) < 1 {
			return fmt.Errorf("usage: n8nctl %s <id>", cmd)
		}
		toggle := c.ActivateWorkflow
		if cmd == "deactivate" {
			toggle = c.DeactivateWorkflow
		}
		wf, err := toggle(ctx, args[0])
		if err != nil {
			return err
		}
		log.Printf("%s active=%t", wf.ID, wf.Active)
		return nil

	case "executions":
		if len(args) < 1 {
			return fmt.Errorf("usage: n8nctl executions <id> [limit]")
		}
		limit := 20
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid limit %q", args[1])
			}
			limit = n
		}
		execs, err := c.ListExecutions(ctx, args[0], limit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tMODE\tSTARTED")
		for _, e := range execs {
			started := "-"
			if e.StartedAt != nil {
				started = e.StartedAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Status, e.Mode, started)
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown command\n%s", usage)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
