package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const maxImageSize = 10 << 20 // 10 MB

var mimeToExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type imageResult struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

func (s *Server) saveImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	novelID, err := req.RequireString("novel_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	uri, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, ext, err := decodeDataURI(uri)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > maxImageSize {
		return mcp.NewToolResultError(fmt.Sprintf("image too large: %d bytes (max %d)", len(data), maxImageSize)), nil
	}
	if err := validateMagicBytes(data, ext); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := "image" + ext
	if v := req.GetString("filename", ""); v != "" {
		if e := strings.ToLower(filepath.Ext(v)); e == ext || (ext == ".jpg" && e == ".jpeg") {
			name = filepath.Base(v)
		}
	}

	path, err := s.repos.Novels.SaveImage(ctx, novelID, name, data)
	if err != nil {
		return s.toolError("save_image", err), nil
	}
	out, _ := json.Marshal(imageResult{Path: path, Size: len(data)})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses a data:<mediatype>;base64,<data> URI and returns
// the payload with the file extension of its media type.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("expected a data URI")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	ext := mimeToExt[mime]
	if ext == "" {
		return nil, "", fmt.Errorf("unsupported image type: %s (allowed: png, jpeg, gif, webp)", mime)
	}
	return data, ext, nil
}

// validateMagicBytes verifies the content matches the declared type.
func validateMagicBytes(data []byte, ext string) error {
	detected := http.DetectContentType(data)
	if mimeToExt[strings.Split(detected, ";")[0]] != ext {
		return fmt.Errorf("content does not match %s (detected: %s)", ext, detected)
	}
	return nil
}
