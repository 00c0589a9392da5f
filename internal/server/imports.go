package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/possaas/internal/importer"
)

const (
	HeaderUserID    = "X-User-ID"
	importFormField = "file"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ImportEntity accepts a multipart upload under "file". X-User-ID, when
// present, is checked against the entity's import permission.
func (s *Server) ImportEntity(c *gin.Context) {
	var userID snowflake.ID
	if raw := strings.TrimSpace(c.GetHeader(HeaderUserID)); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id <= 0 {
			AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user id"))
			return
		}
		userID = id
	}

	header, err := c.FormFile(importFormField)
	if err != nil {
		AbortWithError(c, newValidationError(importFormField, "required", "file is required"))
		return
	}
	if limit := s.holder.Get().ImportMaxBytes; limit > 0 && header.Size > limit {
		AbortWithError(c, importer.ErrFileTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer closeQuietly(file)

	report, err := s.imports.Import(c.Request.Context(), importer.Request{
		TenantID: c.Param("id"),
		Entity:   c.Param("entity"),
		UserID:   userID,
		FileName: header.Filename,
		Body:     file,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) ImportTemplate(c *gin.Context) {
	entity := c.Param("entity")
	body, err := importer.Template(entity)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_template.xlsx"`, entity))
	c.Data(http.StatusOK, xlsxContentType, body)
}

type importEntityView struct {
	Entity     string   `json:"entity"`
	Permission string   `json:"permission"`
	Key        string   `json:"key"`
	Headings   []string `json:"headings"`
}

func (s *Server) ListImportEntities(c *gin.Context) {
	entities := importer.Entities()
	views := make([]importEntityView, 0, len(entities))
	for _, name := range entities {
		d, _ := importer.Lookup(name)
		views = append(views, importEntityView{
			Entity:     d.Entity,
			Permission: d.Permission,
			Key:        d.Key,
			Headings:   d.Headings,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}
