package main

import (
	"fmt"
	"strconv"

	"github.com/cuemby/resource-status/pkg/log"
	"github.com/cuemby/resource-status/pkg/metrics"
	"github.com/cuemby/resource-status/pkg/query"
	"github.com/cuemby/resource-status/pkg/types"
	"github.com/spf13/cobra"
)

// Query verbs
const (
	verbExists          = "exists"
	verbIsStonith       = "is-stonith"
	verbIsType          = "is-type"
	verbGetType         = "get-type"
	verbIsState         = "is-state"
	verbIsInGroup       = "is-in-group"
	verbIsInClone       = "is-in-clone"
	verbIsInBundle      = "is-in-bundle"
	verbGetNodes        = "get-nodes"
	verbGetMembers      = "get-members"
	verbGetIndexInGroup = "get-index-in-group"
)

func newQueryCmd(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "query RESOURCE[:INSTANCE] VERB [ARGS...]",
		Short: "Ask a question about one resource",
		Long: `Ask a question about one resource.

Verbs:
  exists
  is-stonith
  is-type <primitive|group|clone|bundle> [unique] [promotable]
  get-type
  is-state <state> [<value>] [on-node <node>] [members <all|any|none>] [instances <all|any|none>]
  is-in-group [<group-id>]
  is-in-clone [<clone-id>]
  is-in-bundle [<bundle-id>]
  get-nodes
  get-members
  get-index-in-group

A value is only accepted by the pending and locked-to states.

Examples:
  # Is the web group running on every member?
  resource-status query web is-state started members all

  # Is instance 1 of a unique clone locked to node2?
  resource-status query dummy:1 is-state locked-to node2

  # Which node hosts the database?
  resource-status query db get-nodes`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseRequest(args)
			if err != nil {
				return err
			}
			return a.runQuery(cmd, req, quiet)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print nothing, only set the exit code")

	return cmd
}

// request is a parsed query command line
type request struct {
	key  types.ResourceKey
	verb string

	// is-type
	kind       types.ResourceKind
	unique     bool
	promotable bool

	// is-state
	state    query.State
	value    string
	hasValue bool
	policy   query.Policy

	// is-in-*
	container string
}

// answer is the outcome of a query. Lines are printed after the boolean for
// predicates and on their own for get-* verbs.
type answer struct {
	value   bool
	boolean bool
	lines   []string
}

func parseRequest(args []string) (*request, error) {
	req := &request{
		key:  types.SplitResourceID(args[0]),
		verb: args[1],
	}
	if req.key.ResourceID == "" {
		return nil, fmt.Errorf("resource id must not be empty")
	}
	rest := args[2:]

	switch req.verb {
	case verbExists, verbIsStonith, verbGetType, verbGetNodes, verbGetMembers, verbGetIndexInGroup:
		if len(rest) > 0 {
			return nil, fmt.Errorf("%s takes no arguments", req.verb)
		}
	case verbIsType:
		if err := req.parseTypeArgs(rest); err != nil {
			return nil, err
		}
	case verbIsState:
		if err := req.parseStateArgs(rest); err != nil {
			return nil, err
		}
	case verbIsInGroup, verbIsInClone, verbIsInBundle:
		if len(rest) > 1 {
			return nil, fmt.Errorf("%s takes at most one container id", req.verb)
		}
		if len(rest) == 1 {
			req.container = rest[0]
		}
	default:
		return nil, fmt.Errorf("unknown verb %q", req.verb)
	}
	return req, nil
}

func (r *request) parseTypeArgs(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("is-type requires a resource kind")
	}
	kind, err := types.ParseKind(args[0])
	if err != nil {
		return err
	}
	r.kind = kind

	for _, arg := range args[1:] {
		switch {
		case arg == "unique" && !r.unique:
			r.unique = true
		case arg == "promotable" && !r.promotable:
			r.promotable = true
		default:
			return fmt.Errorf("unexpected is-type argument %q", arg)
		}
	}

	if (r.unique || r.promotable) && kind != types.KindClone && kind != types.KindBundle {
		return fmt.Errorf("unique and promotable only apply to clone and bundle")
	}
	return nil
}

func (r *request) parseStateArgs(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("is-state requires a state")
	}
	state, err := query.ParseState(args[0])
	if err != nil {
		return err
	}
	r.state = state
	rest := args[1:]

	if state.HasValue() && len(rest) > 0 && !isPolicyKeyword(rest[0]) {
		r.value = rest[0]
		r.hasValue = true
		rest = rest[1:]
	}

	seen := make(map[string]bool)
	for len(rest) > 0 {
		keyword := rest[0]
		if !isPolicyKeyword(keyword) {
			return fmt.Errorf("unexpected is-state argument %q", keyword)
		}
		if seen[keyword] {
			return fmt.Errorf("%s given more than once", keyword)
		}
		seen[keyword] = true
		if len(rest) < 2 {
			return fmt.Errorf("%s requires a value", keyword)
		}

		value := rest[1]
		switch keyword {
		case "on-node":
			r.policy.Node = value
		case "members":
			if r.policy.Members, err = query.ParseQuantifier(value); err != nil {
				return err
			}
		case "instances":
			if r.policy.Instances, err = query.ParseQuantifier(value); err != nil {
				return err
			}
		}
		rest = rest[2:]
	}
	return nil
}

func isPolicyKeyword(s string) bool {
	return s == "on-node" || s == "members" || s == "instances"
}

func (a *app) runQuery(cmd *cobra.Command, req *request, quiet bool) error {
	defer a.flushMetrics()

	logger := log.WithResourceID(req.key.String())
	timer := metrics.NewTimer()

	f, err := a.loadFacade(cmd.Context())
	if err != nil {
		a.metrics.RecordQuery(req.verb, "error", timer)
		return err
	}

	if node := req.policy.Node; node != "" && len(f.Snapshot().Nodes) > 0 && !f.Snapshot().HasNode(node) {
		l := log.WithNode(node)
		l.Warn().Msg("Node is not part of the cluster")
	}

	ans, err := req.evaluate(f)
	if err != nil {
		a.metrics.RecordQuery(req.verb, "error", timer)
		logger.Debug().Err(err).Str("verb", req.verb).Msg("Query failed")
		return err
	}
	a.metrics.RecordQuery(req.verb, strconv.FormatBool(ans.value), timer)
	logger.Debug().Str("verb", req.verb).Bool("result", ans.value).Msg("Query answered")

	if !quiet {
		out := cmd.OutOrStdout()
		if ans.boolean {
			fmt.Fprintln(out, strconv.FormatBool(ans.value))
		}
		for _, line := range ans.lines {
			fmt.Fprintln(out, line)
		}
	}

	if !ans.value {
		return &exitStatus{code: exitFalse}
	}
	return nil
}

func (r *request) evaluate(f *query.Facade) (answer, error) {
	switch r.verb {
	case verbExists:
		return predicate(f.Exists(r.key), nil)
	case verbIsStonith:
		return predicate(f.IsStonith(r.key))
	case verbIsType:
		return predicate(r.isType(f))
	case verbGetType:
		kind, err := f.Type(r.key)
		if err != nil {
			return answer{}, err
		}
		return values(string(kind)), nil
	case verbIsState:
		if r.hasValue {
			return predicate(f.IsStateExactValue(r.key, r.state, r.value, r.policy))
		}
		return predicate(f.IsState(r.key, r.state, r.policy))
	case verbIsInGroup:
		return r.containment(f.ParentGroupID(r.key))
	case verbIsInClone:
		return r.containment(f.ParentCloneID(r.key))
	case verbIsInBundle:
		return r.containment(f.ParentBundleID(r.key))
	case verbGetNodes:
		nodes, err := f.Nodes(r.key)
		if err != nil {
			return answer{}, err
		}
		return values(nodes...), nil
	case verbGetMembers:
		members, err := f.Members(r.key)
		if err != nil {
			return answer{}, err
		}
		lines := make([]string, len(members))
		for i, m := range members {
			lines[i] = m.String()
		}
		return values(lines...), nil
	case verbGetIndexInGroup:
		idx, err := f.IndexInGroup(r.key)
		if err != nil {
			return answer{}, err
		}
		return values(strconv.Itoa(idx)), nil
	}
	return answer{}, fmt.Errorf("unknown verb %q", r.verb)
}

// isType answers a kind mismatch with false rather than an error
func (r *request) isType(f *query.Facade) (bool, error) {
	kind, err := f.Type(r.key)
	if err != nil || kind != r.kind {
		return false, err
	}
	if r.unique {
		if ok, err := f.IsUnique(r.key); err != nil || !ok {
			return false, err
		}
	}
	if r.promotable {
		if ok, err := f.IsPromotable(r.key); err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (r *request) containment(parent types.ResourceKey, ok bool, err error) (answer, error) {
	if err != nil {
		return answer{}, err
	}
	if ok && r.container != "" && parent.String() != r.container {
		ok = false
	}
	ans := answer{value: ok, boolean: true}
	if ok {
		ans.lines = []string{parent.String()}
	}
	return ans, nil
}

func predicate(value bool, err error) (answer, error) {
	if err != nil {
		return answer{}, err
	}
	return answer{value: value, boolean: true}, nil
}

func values(lines ...string) answer {
	return answer{value: true, lines: lines}
}
