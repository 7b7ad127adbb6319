// Package api exposes the fabric configuration to hosts over HTTP.
// GET endpoints are public (read-only tables and current values).
// POST and DELETE endpoints require a bearer token (override and profile
// control).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/talgya/eig/internal/config"
	"github.com/talgya/eig/internal/engine"
	"github.com/talgya/eig/internal/fabric"
	"github.com/talgya/eig/internal/persistence"
)

// Server serves fabric configuration over HTTP.
type Server struct {
	Features  *fabric.Features
	Lifecycle *engine.Lifecycle // Optional; reported by /status and /stages
	Engine    *engine.Engine    // Optional; supplies Lifecycle when that is nil
	DB        *persistence.DB   // Optional; profile endpoints return 503 without it
	Port      int
	AdminKey  string // Bearer token for POST endpoints. Empty = POST disabled.

	// Limits override writes per client; nil uses 60 per minute.
	Limiter *RateLimiter
	// TrustProxy keys the default limiter by X-Forwarded-For.
	TrustProxy bool
}

type colorEntry struct {
	RGB fabric.RGB `json:"rgb"`
	Hex string     `json:"hex"`
}

func newColorEntry(c fabric.RGB) colorEntry {
	return colorEntry{RGB: c, Hex: c.Hex()}
}

// Handler returns the API routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	limiter := s.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(60, time.Minute)
		limiter.TrustForwarded = s.TrustProxy
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/stages", s.handleStages)
	mux.HandleFunc("GET /api/v1/roles", s.handleRoles)
	mux.HandleFunc("GET /api/v1/features", s.handleFeatures)
	mux.HandleFunc("GET /api/v1/palette", s.handlePalette)
	mux.HandleFunc("GET /api/v1/surfaces", s.handleSurfaces)
	mux.HandleFunc("GET /api/v1/profiles", s.handleProfiles)

	// Admin endpoints.
	mux.HandleFunc("POST /api/v1/features", s.adminOnly(RateLimitMiddleware(limiter, s.handleSetFeature)))
	mux.HandleFunc("POST /api/v1/profiles", s.adminOnly(s.handleSaveProfile))
	mux.HandleFunc("POST /api/v1/profile/{name}/apply", s.adminOnly(s.handleApplyProfile))
	mux.HandleFunc("DELETE /api/v1/profile/{name}", s.adminOnly(s.handleDeleteProfile))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine and returns the server
// so the caller can shut it down.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "profiles", s.DB != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:8080": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no EIG_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// lifecycle returns the tracker to report, or nil when none is attached.
func (s *Server) lifecycle() *engine.Lifecycle {
	if s.Lifecycle == nil && s.Engine != nil {
		return s.Engine.Lifecycle
	}
	return s.Lifecycle
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"name":       "eig",
		"overridden": len(s.Features.Overrides()),
		"features":   fabric.FeatureCount,
		"roles":      fabric.RoleCount,
		"stages":     fabric.StageCount,
		"profiles":   s.DB != nil,
	}
	if lc := s.lifecycle(); lc != nil {
		status["stage"] = lc.Stage()
		status["countdown"] = lc.Countdown()
	}
	if s.Engine != nil {
		status["running"] = s.Engine.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleStages(w http.ResponseWriter, r *http.Request) {
	type stageEntry struct {
		Tag     uint8        `json:"tag"`
		Name    fabric.Stage `json:"name"`
		Settled bool         `json:"settled"`
		Current bool         `json:"current,omitempty"`
	}

	current := fabric.Stage(fabric.StageCount)
	if lc := s.lifecycle(); lc != nil {
		current = lc.Stage()
	}

	stages := make([]stageEntry, 0, fabric.StageCount)
	for _, st := range fabric.Stages() {
		stages = append(stages, stageEntry{
			Tag:     st.Tag(),
			Name:    st,
			Settled: st.Settled(),
			Current: st == current,
		})
	}
	writeJSON(w, stages)
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	type roleEntry struct {
		Tag           uint8                 `json:"tag"`
		Name          fabric.IntervalRole   `json:"name"`
		Push          bool                  `json:"push"`
		DefaultLength *float32              `json:"default_length,omitempty"`
		RestLength    *float32              `json:"rest_length,omitempty"`
		LengthFeature *fabric.FabricFeature `json:"length_feature,omitempty"`
		RadiusFactor  float32               `json:"radius_factor"`
		Color         colorEntry            `json:"color"`
	}

	roles := make([]roleEntry, 0, fabric.RoleCount)
	for _, role := range fabric.Roles() {
		entry := roleEntry{
			Tag:          role.Tag(),
			Name:         role,
			Push:         role.Push(),
			RadiusFactor: s.Features.RadiusFactor(role),
			Color:        newColorEntry(fabric.RoleColor(role)),
		}
		// Face pulls have no geometric length; omit rather than report zero.
		if def, ok := fabric.DefaultRestLength(role); ok {
			entry.DefaultLength = &def
		}
		if length, ok := s.Features.RestLength(role); ok {
			entry.RestLength = &length
		}
		if f, ok := role.LengthFeature(); ok {
			entry.LengthFeature = &f
		}
		roles = append(roles, entry)
	}
	writeJSON(w, roles)
}

type featureEntry struct {
	Tag        uint8                `json:"tag"`
	Name       fabric.FabricFeature `json:"name"`
	Default    float32              `json:"default"`
	Value      float32              `json:"value"`
	Overridden bool                 `json:"overridden"`
	Counter    bool                 `json:"counter,omitempty"`
}

func newFeatureEntry(f fabric.FabricFeature, value float32, overridden bool) featureEntry {
	return featureEntry{
		Tag:        f.Tag(),
		Name:       f,
		Default:    f.Default(),
		Value:      value,
		Overridden: overridden,
		Counter:    f.Counter(),
	}
}

func (s *Server) featureEntry(f fabric.FabricFeature) featureEntry {
	return newFeatureEntry(f, s.Features.Get(f), s.Features.Overridden(f))
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	values, overridden := s.Features.Snapshot()
	features := make([]featureEntry, 0, fabric.FeatureCount)
	for _, f := range fabric.AllFeatures() {
		features = append(features, newFeatureEntry(f, values[f], overridden[f]))
	}
	writeJSON(w, features)
}

func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	roles := make(map[string]colorEntry, fabric.RoleCount)
	for _, role := range fabric.Roles() {
		roles[role.String()] = newColorEntry(fabric.RoleColor(role))
	}
	gradient := fabric.Rainbow()
	rainbow := make([]colorEntry, 0, len(gradient))
	for _, c := range gradient {
		rainbow = append(rainbow, newColorEntry(c))
	}

	writeJSON(w, map[string]any{
		"attenuated": newColorEntry(fabric.AttenuatedColor()),
		"slack":      newColorEntry(fabric.SlackColor()),
		"roles":      roles,
		"rainbow":    rainbow,
	})
}

func (s *Server) handleSurfaces(w http.ResponseWriter, r *http.Request) {
	type surfaceEntry struct {
		Tag  uint8                   `json:"tag"`
		Name fabric.SurfaceCharacter `json:"name"`
	}
	surfaces := make([]surfaceEntry, 0, fabric.SurfaceCount)
	for _, c := range fabric.Surfaces() {
		surfaces = append(surfaces, surfaceEntry{Tag: c.Tag(), Name: c})
	}
	writeJSON(w, surfaces)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	list, err := s.DB.ListProfiles()
	if err != nil {
		slog.Error("list profiles failed", "error", err)
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []persistence.ProfileInfo{}
	}
	writeJSON(w, list)
}

func (s *Server) handleSetFeature(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Feature *fabric.FabricFeature `json:"feature"`
		Value   *float32              `json:"value"`
		Reset   bool                  `json:"reset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Feature == nil {
		http.Error(w, "feature required", http.StatusBadRequest)
		return
	}
	feature := *req.Feature

	switch {
	case req.Reset:
		s.Features.Reset(feature)
		slog.Info("feature reset", "feature", feature)
	case req.Value != nil:
		if err := s.Features.Set(feature, *req.Value); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Info("feature set", "feature", feature, "value", *req.Value)
	default:
		http.Error(w, "value or reset required", http.StatusBadRequest)
		return
	}

	writeJSON(w, s.featureEntry(feature))
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	p := config.Capture(req.Name, s.Features)
	p.Description = req.Description
	id, err := s.DB.SaveProfile(p)
	if errors.Is(err, config.ErrInvalidProfile) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("profile save failed", "name", req.Name, "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"id":        id,
		"name":      p.Name,
		"overrides": len(p.Overrides),
	})
}

// handleApplyProfile replaces the current overrides with a stored profile.
func (s *Server) handleApplyProfile(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	name := r.PathValue("name")
	p, err := s.DB.LoadProfile(name)
	if errors.Is(err, persistence.ErrProfileNotFound) {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("profile load failed", "name", name, "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}

	if err := p.Replace(s.Features); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	slog.Info("profile applied", "name", name, "overrides", len(p.Overrides))

	writeJSON(w, map[string]any{
		"name":      p.Name,
		"overrides": len(p.Overrides),
	})
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	name := r.PathValue("name")
	err := s.DB.DeleteProfile(name)
	if errors.Is(err, persistence.ErrProfileNotFound) {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("profile delete failed", "name", name, "error", err)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}
	slog.Info("profile deleted", "name", name)

	writeJSON(w, map[string]any{"name": name, "deleted": true})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}
