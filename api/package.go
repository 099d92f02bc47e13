package api

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/docforge/docforge/domain"
)

// artifactFilenames maps artifact keys to their filenames in the archive.
var artifactFilenames = map[string]string{
	string(domain.ArtifactBlueprint):    "blueprint.md",
	string(domain.ArtifactArchitecture): "architecture.md",
	string(domain.ArtifactGuide):        "implementation-guide.md",
	string(domain.ArtifactTasks):        "tasks.json",
}

// Package bundles generated documents into a zip archive.
// POST /api/package
func (h *Handler) Package(c echo.Context) error {
	var req domain.PackageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error: "Invalid request body",
		})
	}
	if len(req.Artifacts) == 0 {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error: "Missing artifacts in request body",
		})
	}
	for key := range req.Artifacts {
		if _, ok := artifactFilenames[key]; !ok {
			return c.JSON(http.StatusBadRequest, domain.ErrorResponse{
				Error: fmt.Sprintf("Unknown artifact type: %s", key),
			})
		}
	}

	dir := slug(req.ProjectName)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// Fixed order keeps archives reproducible for identical input.
	for _, key := range []string{
		string(domain.ArtifactBlueprint),
		string(domain.ArtifactArchitecture),
		string(domain.ArtifactGuide),
		string(domain.ArtifactTasks),
	} {
		text, ok := req.Artifacts[key]
		if !ok {
			continue
		}
		f, err := zw.Create(dir + "/" + artifactFilenames[key])
		if err != nil {
			return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Failed to build archive",
				Details: err.Error(),
			})
		}
		if _, err := f.Write([]byte(text)); err != nil {
			return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Failed to build archive",
				Details: err.Error(),
			})
		}
	}

	if err := zw.Close(); err != nil {
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Failed to build archive",
			Details: err.Error(),
		})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.zip"`, dir))
	return c.Blob(http.StatusOK, "application/zip", buf.Bytes())
}

// slug turns a project name into a safe archive directory name.
func slug(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return "project"
	}
	var b strings.Builder
	lastDash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "project"
	}
	return out
}
