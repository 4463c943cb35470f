package main

import (
	"fmt"
	"strings"

	"github.com/cuemby/resource-status/pkg/query"
	"github.com/cuemby/resource-status/pkg/types"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List top-level resources",
		Long: `List the top-level resources of the cluster with their kind, a short
status summary and the nodes they run on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.flushMetrics()

			f, err := a.loadFacade(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "KIND", "STATUS", "NODES"})
			for _, r := range f.Snapshot().Resources {
				nodes, err := f.Nodes(r.Key())
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{r.Key().String(), string(r.Kind()), summarize(r), strings.Join(nodes, ",")})
			}
			t.Render()
			return nil
		},
	}
}

func newNodesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List cluster nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.flushMetrics()

			f, err := a.loadFacade(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"NAME", "ID", "TYPE", "STATUS"})
			for _, n := range f.Snapshot().Nodes {
				t.AppendRow(table.Row{n.Name, n.ID, n.Type, nodeStatus(n)})
			}
			t.Render()
			return nil
		},
	}
}

// summarize describes a resource in a few words for the list table
func summarize(r types.Resource) string {
	var parts []string
	switch res := r.(type) {
	case *types.Primitive:
		parts = append(parts, string(res.Role))
		parts = append(parts, primitiveFlags(res)...)
	case *types.Group:
		parts = append(parts, fmt.Sprintf("%d/%d started", countStarted(res.Members), len(res.Members)))
		parts = append(parts, containerFlags(res.Managed, res.Maintenance, res.Disabled, false)...)
	case *types.Clone:
		running := 0
		for _, inst := range res.Instances {
			if instanceStarted(inst) {
				running++
			}
		}
		parts = append(parts, fmt.Sprintf("%d/%d started", running, len(res.Instances)))
		if res.Promotable {
			parts = append(parts, "promotable")
		}
		if res.Unique {
			parts = append(parts, "unique")
		}
		parts = append(parts, containerFlags(res.Managed, res.Maintenance, res.Disabled, res.Failed)...)
	case *types.Bundle:
		effective := make([]*types.Primitive, 0, len(res.Replicas))
		for _, rep := range res.Replicas {
			effective = append(effective, rep.Effective())
		}
		parts = append(parts, fmt.Sprintf("%d/%d replicas started", countStarted(effective), len(effective)))
		if res.ContainerType != "" {
			parts = append(parts, res.ContainerType)
		}
		parts = append(parts, containerFlags(res.Managed, res.Maintenance, false, res.Failed)...)
	}
	return strings.Join(parts, ", ")
}

func primitiveFlags(p *types.Primitive) []string {
	var flags []string
	if p.Disabled() {
		flags = append(flags, "disabled")
	}
	if !p.Managed {
		flags = append(flags, "unmanaged")
	}
	if p.Maintenance {
		flags = append(flags, "maintenance")
	}
	if p.Failed {
		flags = append(flags, "failed")
	}
	if p.Blocked {
		flags = append(flags, "blocked")
	}
	if p.Orphaned {
		flags = append(flags, "orphaned")
	}
	if p.Pending != "" {
		flags = append(flags, "pending "+p.Pending)
	}
	if p.LockedTo != "" {
		flags = append(flags, "locked to "+p.LockedTo)
	}
	return flags
}

func containerFlags(managed, maintenance, disabled, failed bool) []string {
	var flags []string
	if disabled {
		flags = append(flags, "disabled")
	}
	if !managed {
		flags = append(flags, "unmanaged")
	}
	if maintenance {
		flags = append(flags, "maintenance")
	}
	if failed {
		flags = append(flags, "failed")
	}
	return flags
}

func countStarted(primitives []*types.Primitive) int {
	n := 0
	for _, p := range primitives {
		if p.Role.IsRunning() {
			n++
		}
	}
	return n
}

// instanceStarted counts a cloned group as started when all members are
func instanceStarted(r types.Resource) bool {
	switch res := r.(type) {
	case *types.Primitive:
		return res.Role.IsRunning()
	case *types.Group:
		return query.QuantifierAll.Reduce(startedResults(res.Members))
	}
	return false
}

func startedResults(primitives []*types.Primitive) []bool {
	results := make([]bool, len(primitives))
	for i, p := range primitives {
		results[i] = p.Role.IsRunning()
	}
	return results
}

func nodeStatus(n types.Node) string {
	status := "offline"
	if n.Online {
		status = "online"
	}
	if n.Standby {
		status += ", standby"
	}
	if n.Maintenance {
		status += ", maintenance"
	}
	return status
}
