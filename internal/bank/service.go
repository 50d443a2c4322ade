package bank

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sigexhq/sigex-cli/internal/content"
	"github.com/sigexhq/sigex-cli/internal/signal"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

// Service exposes banks and signal matching over HTTP.
type Service struct {
	store    *Store
	media    *MediaStore // may be nil when no object store is configured
	registry *signal.Registry
	indexes  *index.Store
	logger   *slog.Logger
}

// NewService wires the REST service. media may be nil; member media
// endpoints then return 501.
func NewService(store *Store, media *MediaStore, reg *signal.Registry, indexes *index.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, media: media, registry: reg, indexes: indexes, logger: logger}
}

// Register mounts all routes on e under /v1.
func (s *Service) Register(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())

	v1 := e.Group("/v1")
	v1.POST("/banks", s.createBank)
	v1.GET("/banks", s.listBanks)
	v1.GET("/banks/:id", s.getBank)
	v1.PATCH("/banks/:id", s.updateBank)
	v1.POST("/banks/:id/members", s.addMember)
	v1.POST("/banks/:id/members/upload-url", s.memberUploadURL)
	v1.GET("/banks/:id/members", s.listMembers)
	v1.GET("/members/:id", s.getMember)
	v1.DELETE("/members/:id", s.removeMember)
	v1.GET("/members/:id/signals", s.memberSignals)
	v1.GET("/members/:id/media-url", s.memberMediaURL)
	v1.GET("/match", s.match)
}

func (s *Service) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			)
			return nil
		},
	})
}

type createBankRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Service) createBank(c echo.Context) error {
	var req createBankRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	b, err := s.store.CreateBank(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (s *Service) listBanks(c echo.Context) error {
	banks, err := s.store.ListBanks(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"banks": banks})
}

func (s *Service) getBank(c echo.Context) error {
	b, err := s.store.GetBank(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "bank not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

type updateBankRequest struct {
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (s *Service) updateBank(c echo.Context) error {
	ctx := c.Request().Context()
	b, err := s.store.GetBank(ctx, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "bank not found")
	}
	if err != nil {
		return err
	}

	var req updateBankRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	desc := b.Description
	if req.Description != nil {
		desc = *req.Description
	}
	active := b.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}
	updated, err := s.store.UpdateBank(ctx, b.ID, desc, active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

type addMemberRequest struct {
	ContentType string `json:"content_type"`
	RawContent  string `json:"raw_content"`
	StorageKey  string `json:"storage_key"`
	Notes       string `json:"notes"`
}

type addMemberResponse struct {
	Member  *BankMember    `json:"member"`
	Signals []MemberSignal `json:"signals"`
}

func (s *Service) addMember(c echo.Context) error {
	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ct, err := content.Parse(req.ContentType)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.RawContent == "" && req.StorageKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "raw_content or storage_key is required")
	}

	m := &BankMember{
		ContentType: ct,
		StorageKey:  req.StorageKey,
		RawContent:  req.RawContent,
		Notes:       req.Notes,
	}
	if req.StorageKey != "" {
		if s.media == nil {
			return echo.NewHTTPError(http.StatusNotImplemented, "no media store configured")
		}
		m.StorageBucket = s.media.Bucket()
	}

	signals := s.deriveSignals(ct, req.RawContent)
	added, err := s.store.AddMember(c.Request().Context(), c.Param("id"), m, signals)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "bank not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, addMemberResponse{Member: added, Signals: signals})
}

// deriveSignals hashes inline content with every applicable text hasher.
// Media content is hashed out of band; types a hasher cannot handle are
// skipped rather than failing the add.
func (s *Service) deriveSignals(ct content.Type, raw string) []MemberSignal {
	if raw == "" {
		return nil
	}
	var out []MemberSignal
	for _, st := range s.registry.ForContentType(ct) {
		if st.HashFromString == nil {
			continue
		}
		hash, err := st.HashFromString(raw)
		if err != nil {
			s.logger.Debug("hasher skipped content",
				slog.String("signal_type", st.Name), slog.String("error", err.Error()))
			continue
		}
		out = append(out, MemberSignal{SignalType: st.Name, Hash: hash})
	}
	return out
}

func (s *Service) listMembers(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &limit); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}
	members, next, err := s.store.ListMembers(c.Request().Context(), c.Param("id"), c.QueryParam("cursor"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"members": members, "next_cursor": next})
}

func (s *Service) getMember(c echo.Context) error {
	m, err := s.store.GetMember(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "member not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Service) removeMember(c echo.Context) error {
	err := s.store.RemoveMember(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "member not found")
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Service) memberSignals(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := s.store.GetMember(ctx, c.Param("id")); errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "member not found")
	} else if err != nil {
		return err
	}
	sigs, err := s.store.SignalsForMember(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"signals": sigs})
}

type uploadURLRequest struct {
	Filename string `json:"filename"`
}

type uploadURLResponse struct {
	UploadURL  string `json:"upload_url"`
	StorageKey string `json:"storage_key"`
	Bucket     string `json:"bucket"`
}

// memberUploadURL issues a presigned PUT URL plus a fresh storage key. The
// client uploads directly to the object store, then adds a member carrying
// the returned key.
func (s *Service) memberUploadURL(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := s.store.GetBank(ctx, c.Param("id")); errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "bank not found")
	} else if err != nil {
		return err
	}
	if s.media == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "no media store configured")
	}

	var req uploadURLRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	key := c.Param("id") + "/" + uuid.NewString()
	if req.Filename != "" {
		key += "/" + path.Base(req.Filename)
	}
	u, err := s.media.UploadURL(ctx, key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, uploadURLResponse{
		UploadURL:  u,
		StorageKey: key,
		Bucket:     s.media.Bucket(),
	})
}

func (s *Service) memberMediaURL(c echo.Context) error {
	if s.media == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "no media store configured")
	}
	ctx := c.Request().Context()
	m, err := s.store.GetMember(ctx, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "member not found")
	}
	if err != nil {
		return err
	}
	if m.StorageKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "member has no stored media")
	}
	u, err := s.media.PreviewURL(ctx, m.StorageKey)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"url": u})
}

type matchResult struct {
	Distance int    `json:"distance"`
	Payload  string `json:"payload"`
}

func (s *Service) match(c echo.Context) error {
	typeName := c.QueryParam("signal_type")
	hash := c.QueryParam("hash")
	if typeName == "" || hash == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "signal_type and hash are required")
	}
	st, err := s.registry.ByName(typeName)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if st.Validate != nil && !st.Validate(hash) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("malformed %s hash", typeName))
	}

	idx, err := s.indexes.Load(st.Name, st.IndexClass, st.IndexCompare())
	if err != nil {
		return err
	}
	results := []matchResult{}
	if idx != nil {
		for _, m := range idx.Query(hash) {
			results = append(results, matchResult{Distance: m.Distance, Payload: m.Payload})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"matches": results})
}
