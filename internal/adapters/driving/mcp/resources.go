package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for Lorebook resources.
const uriScheme = "lorebook://"

// collectionInfo is the JSON shape served for each collection.
type collectionInfo struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Distance  string `json:"distance"`
	Chunks    int    `json:"chunks"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "List of indexed rulebook collections",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)
}

// handleCollectionsResource returns a list of all indexed collections.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	text := "[]"

	if s.ports.Collections != nil {
		infos, err := s.ports.Collections.List(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]collectionInfo, len(infos))
		for i, info := range infos {
			out[i] = collectionInfo{
				Name:      info.Name,
				Dimension: info.Dimension,
				Distance:  info.Distance.String(),
				Chunks:    info.Chunks,
			}
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, err
		}
		text = string(data)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		}},
	}, nil
}
