package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/extraction-cache/internal/core/domain/extraction"
)

type pathRequest struct {
	Path string `json:"path"`
}

type pathsRequest struct {
	Paths []string `json:"paths"`
}

type saveBody struct {
	SourcePath        string `json:"source_path"`
	ResponsePayload   string `json:"payload"`
	BackendIdentifier string `json:"backend_identifier"`
}

type payloadResponse struct {
	Found   bool    `json:"found"`
	Payload *string `json:"payload,omitempty"`
}

func (s *Server) initCache(c echo.Context) error {
	if err := s.cacheService.Initialize(c.Request().Context()); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"initialized": true})
}

func (s *Server) fingerprint(c echo.Context) error {
	var req pathRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}

	fp, err := s.cacheService.Fingerprint(c.Request().Context(), req.Path)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"fingerprint": fp})
}

func (s *Server) fingerprintBatch(c echo.Context) error {
	var req pathsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Paths) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "paths is required")
	}

	fps, err := s.cacheService.FingerprintMany(c.Request().Context(), req.Paths)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"fingerprints": fps})
}

func (s *Server) lookupFile(c echo.Context) error {
	var req pathRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}

	res, err := s.cacheService.LookupFile(c.Request().Context(), req.Path)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// getCachedPayload answers 200 on a miss; absence is not an error.
func (s *Server) getCachedPayload(c echo.Context) error {
	payload, found, err := s.cacheService.GetCached(c.Request().Context(), c.Param("fingerprint"))
	if err != nil {
		return s.respondError(c, err)
	}
	resp := payloadResponse{Found: found}
	if found {
		resp.Payload = &payload
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) getCacheEntry(c echo.Context) error {
	entry, found, err := s.cacheService.GetEntry(c.Request().Context(), c.Param("fingerprint"))
	if err != nil {
		return s.respondError(c, err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "no cache entry for fingerprint")
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) saveCachedPayload(c echo.Context) error {
	fp := c.Param("fingerprint")
	if fp == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "fingerprint is required")
	}
	var body saveBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req := &extraction.SaveRequest{
		Fingerprint:       fp,
		SourcePath:        body.SourcePath,
		ResponsePayload:   body.ResponsePayload,
		BackendIdentifier: body.BackendIdentifier,
	}
	if err := s.cacheService.SaveCached(c.Request().Context(), req); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"fingerprint": fp})
}

type statsResponse struct {
	*extraction.Stats
	Entries int `json:"entries"`
}

func (s *Server) cacheStats(c echo.Context) error {
	n, err := s.cacheService.EntryCount(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, statsResponse{Stats: s.cacheService.Stats(), Entries: n})
}
