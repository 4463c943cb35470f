package snapshot

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/cuemby/resource-status/pkg/types"
)

// Agents crm_mon reports for the helper resources of a bundle replica
const (
	agentIPAddr = "ocf:heartbeat:IPaddr2"
	agentRemote = "ocf:pacemaker:remote"
)

type xmlStatus struct {
	Nodes     []xmlNode    `xml:"nodes>node"`
	Resources xmlResources `xml:"resources"`
}

type xmlNode struct {
	Name        string `xml:"name,attr"`
	ID          string `xml:"id,attr"`
	Type        string `xml:"type,attr"`
	Online      bool   `xml:"online,attr"`
	Standby     bool   `xml:"standby,attr"`
	Maintenance bool   `xml:"maintenance,attr"`
}

type xmlNodeRef struct {
	Name string `xml:"name,attr"`
}

type xmlPrimitive struct {
	ID             string       `xml:"id,attr"`
	Agent          string       `xml:"resource_agent,attr"`
	Description    string       `xml:"description,attr"`
	Role           string       `xml:"role,attr"`
	TargetRole     string       `xml:"target_role,attr"`
	Active         bool         `xml:"active,attr"`
	Orphaned       bool         `xml:"orphaned,attr"`
	Blocked        bool         `xml:"blocked,attr"`
	Maintenance    bool         `xml:"maintenance,attr"`
	Managed        bool         `xml:"managed,attr"`
	Failed         bool         `xml:"failed,attr"`
	FailureIgnored bool         `xml:"failure_ignored,attr"`
	Pending        string       `xml:"pending,attr"`
	LockedTo       string       `xml:"locked_to,attr"`
	Nodes          []xmlNodeRef `xml:"node"`
}

type xmlGroup struct {
	ID          string         `xml:"id,attr"`
	Description string         `xml:"description,attr"`
	Maintenance bool           `xml:"maintenance,attr"`
	Managed     bool           `xml:"managed,attr"`
	Disabled    bool           `xml:"disabled,attr"`
	Members     []xmlPrimitive `xml:"resource"`
}

type xmlClone struct {
	ID             string         `xml:"id,attr"`
	Description    string         `xml:"description,attr"`
	MultiState     bool           `xml:"multi_state,attr"`
	Unique         bool           `xml:"unique,attr"`
	Maintenance    bool           `xml:"maintenance,attr"`
	Managed        bool           `xml:"managed,attr"`
	Disabled       bool           `xml:"disabled,attr"`
	Failed         bool           `xml:"failed,attr"`
	FailureIgnored bool           `xml:"failure_ignored,attr"`
	TargetRole     string         `xml:"target_role,attr"`
	Primitives     []xmlPrimitive `xml:"resource"`
	Groups         []xmlGroup     `xml:"group"`
}

type xmlBundle struct {
	ID          string       `xml:"id,attr"`
	Description string       `xml:"description,attr"`
	Type        string       `xml:"type,attr"`
	Image       string       `xml:"image,attr"`
	Unique      bool         `xml:"unique,attr"`
	Maintenance bool         `xml:"maintenance,attr"`
	Managed     bool         `xml:"managed,attr"`
	Failed      bool         `xml:"failed,attr"`
	Replicas    []xmlReplica `xml:"replica"`
}

type xmlReplica struct {
	ID        string         `xml:"id,attr"`
	Resources []xmlPrimitive `xml:"resource"`
}

// xmlResources keeps top-level resources in document order across kinds
type xmlResources struct {
	Items []any
}

func (r *xmlResources) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var item any
			switch t.Name.Local {
			case "resource":
				item = &xmlPrimitive{}
			case "group":
				item = &xmlGroup{}
			case "clone":
				item = &xmlClone{}
			case "bundle":
				item = &xmlBundle{}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			if err := d.DecodeElement(item, &t); err != nil {
				return err
			}
			r.Items = append(r.Items, item)
		case xml.EndElement:
			return nil
		}
	}
}

// ParseCrmMonXML converts crm_mon XML output into a snapshot
func ParseCrmMonXML(r io.Reader) (*types.Snapshot, error) {
	var status xmlStatus
	if err := xml.NewDecoder(r).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to parse crm_mon xml: %w", err)
	}

	snapshot := &types.Snapshot{}
	for _, n := range status.Nodes {
		snapshot.Nodes = append(snapshot.Nodes, types.Node{
			Name:        n.Name,
			ID:          n.ID,
			Type:        n.Type,
			Online:      n.Online,
			Standby:     n.Standby,
			Maintenance: n.Maintenance,
		})
	}

	for _, item := range status.Resources.Items {
		var (
			res types.Resource
			err error
		)
		switch x := item.(type) {
		case *xmlPrimitive:
			res, err = x.toModel()
		case *xmlGroup:
			res, err = x.toModel()
		case *xmlClone:
			res, err = x.toModel()
		case *xmlBundle:
			res, err = x.toModel()
		}
		if err != nil {
			return nil, err
		}
		snapshot.Resources = append(snapshot.Resources, res)
	}

	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid status: %w", err)
	}
	return snapshot, nil
}

func (x *xmlPrimitive) toModel() (*types.Primitive, error) {
	role, err := types.ParseRole(x.Role)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", x.ID, err)
	}
	targetRole, err := types.ParseRole(x.TargetRole)
	if err != nil {
		return nil, fmt.Errorf("resource %s: target %w", x.ID, err)
	}

	key := types.SplitResourceID(x.ID)
	p := &types.Primitive{
		ResourceID:     key.ResourceID,
		InstanceID:     key.InstanceID,
		Agent:          x.Agent,
		Description:    x.Description,
		Role:           role,
		TargetRole:     targetRole,
		Active:         x.Active,
		Orphaned:       x.Orphaned,
		Blocked:        x.Blocked,
		Maintenance:    x.Maintenance,
		Managed:        x.Managed,
		Failed:         x.Failed,
		FailureIgnored: x.FailureIgnored,
		Pending:        x.Pending,
		LockedTo:       x.LockedTo,
	}
	for _, n := range x.Nodes {
		p.Nodes = append(p.Nodes, n.Name)
	}
	return p, nil
}

func (x *xmlGroup) toModel() (*types.Group, error) {
	key := types.SplitResourceID(x.ID)
	g := &types.Group{
		ResourceID:  key.ResourceID,
		InstanceID:  key.InstanceID,
		Description: x.Description,
		Maintenance: x.Maintenance,
		Managed:     x.Managed,
		Disabled:    x.Disabled,
	}
	for i := range x.Members {
		m, err := x.Members[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", x.ID, err)
		}
		g.Members = append(g.Members, m)
	}
	return g, nil
}

func (x *xmlClone) toModel() (*types.Clone, error) {
	if len(x.Primitives) > 0 && len(x.Groups) > 0 {
		return nil, fmt.Errorf("clone %s: mixed primitive and group instances", x.ID)
	}
	targetRole, err := types.ParseRole(x.TargetRole)
	if err != nil {
		return nil, fmt.Errorf("clone %s: target %w", x.ID, err)
	}

	c := &types.Clone{
		ResourceID:     x.ID,
		Description:    x.Description,
		Promotable:     x.MultiState,
		Unique:         x.Unique,
		Maintenance:    x.Maintenance,
		Managed:        x.Managed,
		Disabled:       x.Disabled,
		Failed:         x.Failed,
		FailureIgnored: x.FailureIgnored,
		TargetRole:     targetRole,
	}
	for i := range x.Primitives {
		p, err := x.Primitives[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("clone %s: %w", x.ID, err)
		}
		c.Instances = append(c.Instances, p)
	}
	for i := range x.Groups {
		g, err := x.Groups[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("clone %s: %w", x.ID, err)
		}
		c.Instances = append(c.Instances, g)
	}
	return c, nil
}

func (x *xmlBundle) toModel() (*types.Bundle, error) {
	b := &types.Bundle{
		ResourceID:    x.ID,
		Description:   x.Description,
		ContainerType: x.Type,
		Image:         x.Image,
		Unique:        x.Unique,
		Maintenance:   x.Maintenance,
		Managed:       x.Managed,
		Failed:        x.Failed,
	}

	containerAgent := "ocf:heartbeat:" + x.Type
	for _, xr := range x.Replicas {
		rep := types.BundleReplica{ReplicaID: xr.ID}
		for i := range xr.Resources {
			p, err := xr.Resources[i].toModel()
			if err != nil {
				return nil, fmt.Errorf("bundle %s replica %s: %w", x.ID, xr.ID, err)
			}
			switch {
			case p.Agent == agentIPAddr && strings.HasPrefix(p.ResourceID, x.ID+"-ip-"):
				rep.IPAddress = p
			case p.Agent == containerAgent:
				rep.Container = p
			case p.Agent == agentRemote:
				rep.Remote = p
			default:
				rep.Member = p
			}
		}
		if rep.Container == nil {
			return nil, fmt.Errorf("bundle %s replica %s: no container resource", x.ID, xr.ID)
		}
		b.Replicas = append(b.Replicas, rep)
	}
	return b, nil
}

func looksLikeXML(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("<"))
}
