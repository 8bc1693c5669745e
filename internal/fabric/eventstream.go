package fabric

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// PayloadInlineBase64 marks a definition part whose payload is inline.
const PayloadInlineBase64 = "InlineBase64"

// Definition is the content of an item, split into parts.
type Definition struct {
	Parts []DefinitionPart `json:"parts"`
}

// DefinitionPart is one file of a definition.
type DefinitionPart struct {
	Path        string `json:"path"`
	Payload     string `json:"payload"`
	PayloadType string `json:"payloadType"`
}

// InlineDefinition reads a definition file and encodes it as an inline
// part named after the file.
func InlineDefinition(path string) (DefinitionPart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionPart{}, fmt.Errorf("failed to read definition: %w", err)
	}
	return DefinitionPart{
		Path:        filepath.Base(path),
		Payload:     base64.StdEncoding.EncodeToString(data),
		PayloadType: PayloadInlineBase64,
	}, nil
}

// Topology lists the nodes of an eventstream.
type Topology struct {
	Sources      []TopologyNode `json:"sources"`
	Destinations []TopologyNode `json:"destinations"`
	Streams      []TopologyNode `json:"streams"`
}

// TopologyNode is a source, stream or destination.
type TopologyNode struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
}

// Source returns the source node named name.
func (t *Topology) Source(name string) (*TopologyNode, error) {
	for i := range t.Sources {
		if t.Sources[i].Name == name {
			return &t.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("eventstream source %q: %w", name, ErrNotFound)
}

// SourceConnection is the Event Hubs-compatible endpoint of a custom
// endpoint source.
type SourceConnection struct {
	FullyQualifiedNamespace string     `json:"fullyQualifiedNamespace"`
	EventHubName            string     `json:"eventHubName"`
	AccessKeys              AccessKeys `json:"accessKeys"`
}

// AccessKeys are the shared-access credentials of a source.
type AccessKeys struct {
	PrimaryKey                string `json:"primaryKey"`
	SecondaryKey              string `json:"secondaryKey"`
	PrimaryConnectionString   string `json:"primaryConnectionString"`
	SecondaryConnectionString string `json:"secondaryConnectionString"`
}

func eventstreamPath(workspaceID, eventstreamID string) string {
	return workspacePath(workspaceID, "eventstreams") + "/" + url.PathEscape(eventstreamID)
}

// CreateEventstream creates an eventstream from definition parts.
func (c *Client) CreateEventstream(ctx context.Context, workspaceID, name string, parts ...DefinitionPart) (*Item, error) {
	req := createItemRequest{DisplayName: name}
	if len(parts) > 0 {
		req.Definition = &Definition{Parts: parts}
	}
	return c.createItem(ctx, workspaceID, "eventstreams", req)
}

func (c *Client) ListEventstreams(ctx context.Context, workspaceID string) ([]Item, error) {
	return list[Item](ctx, c, workspacePath(workspaceID, "eventstreams"))
}

func (c *Client) GetEventstreamTopology(ctx context.Context, workspaceID, eventstreamID string) (*Topology, error) {
	var t Topology
	if err := c.do(ctx, http.MethodGet, eventstreamPath(workspaceID, eventstreamID)+"/topology", nil, &t); err != nil {
		return nil, fmt.Errorf("failed to get eventstream topology: %w", err)
	}
	return &t, nil
}

func (c *Client) GetSourceConnection(ctx context.Context, workspaceID, eventstreamID, sourceID string) (*SourceConnection, error) {
	path := eventstreamPath(workspaceID, eventstreamID) + "/sources/" + url.PathEscape(sourceID) + "/connection"
	var conn SourceConnection
	if err := c.do(ctx, http.MethodGet, path, nil, &conn); err != nil {
		return nil, fmt.Errorf("failed to get source connection: %w", err)
	}
	return &conn, nil
}
