package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/fretboard/board"
	"github.com/jsphweid/fretboard/chord"
	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/constants"
	"github.com/jsphweid/fretboard/db"
	"github.com/jsphweid/fretboard/fretboard"
	"github.com/jsphweid/fretboard/midi"
	"github.com/jsphweid/fretboard/model"
	"github.com/jsphweid/fretboard/note"
	"github.com/jsphweid/fretboard/render"
	"github.com/jsphweid/fretboard/session"
	"github.com/jsphweid/fretboard/util"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides server.addr")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the interactive fretboard page",
	Long:  `Serves the interactive fretboard page and its JSON API. Every browser gets its own board.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		presets, err := db.New(cfg.Presets)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, NewServer(cfg, logger, presets))
	},
}

func serve(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sessions.Run(ctx, time.Minute, s.cfg.Server.SessionIdle)

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr), zap.String("presets", s.cfg.Presets.Backend))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Server holds what the HTTP handlers share: config, sessions and presets.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	sessions *session.Store
	presets  db.Store
}

func NewServer(cfg *config.Config, logger *zap.Logger, presets db.Store) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		sessions: session.NewStore(cfg.Fretboard, logger),
		presets:  presets,
	}
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/", s.handlePage).Methods("GET")
	router.HandleFunc("/board.svg", s.handleSVG).Methods("GET")
	router.HandleFunc("/board.png", s.handlePNG).Methods("GET")
	router.HandleFunc("/board.mid", s.handleMIDI).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/board", s.handleBoard).Methods("GET")
	api.HandleFunc("/positions/{string:[0-9]+}/{fret:[0-9]+}/toggle", s.handleToggle).Methods("POST")
	api.HandleFunc("/select/{pitch}", s.handleSelect).Methods("POST")
	api.HandleFunc("/notes/{pitch}", s.handleEnableNote).Methods("POST")
	api.HandleFunc("/notes/{pitch}", s.handleDisableNote).Methods("DELETE")
	api.HandleFunc("/scale", s.handleScale).Methods("POST")
	api.HandleFunc("/arpeggio", s.handleArpeggio).Methods("POST")
	api.HandleFunc("/chord", s.handleChord).Methods("POST")
	api.HandleFunc("/tuning", s.handleTuning).Methods("POST")
	api.HandleFunc("/frets", s.handleFrets).Methods("POST")
	api.HandleFunc("/clear", s.handleClear).Methods("POST")
	api.HandleFunc("/import", s.handleImport).Methods("POST")
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets/{name}", s.handleGetPreset).Methods("GET")
	api.HandleFunc("/presets/{name}", s.handleSavePreset).Methods("POST")
	api.HandleFunc("/presets/{name}/load", s.handleLoadPreset).Methods("POST")

	origins := s.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		// same origin only
		return router
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		// a wildcard must not carry the session cookie
		AllowCredentials: !slices.Contains(origins, "*"),
	}).Handler(router)
}

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, fretboard.ErrNoSelection):
		return http.StatusConflict
	case errors.Is(err, fretboard.ErrOutOfRange),
		errors.Is(err, fretboard.ErrUnknownTuning),
		errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, board.ErrInvalidTuning),
		errors.Is(err, board.ErrInvalidFretCount),
		errors.Is(err, chord.ErrUnknownType),
		errors.Is(err, note.ErrInvalidName),
		errors.Is(err, db.ErrInvalidName),
		errors.Is(err, midi.ErrOutOfRange):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: could not decode request body: %v", errBadRequest, err)
	}
	return nil
}

// dispatch applies a to the caller's board and answers with the new state.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, a fretboard.Action) {
	in, err := s.sessions.FromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Dispatch(a); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, boardResponse(in, false))
}

func boardResponse(in *fretboard.Instance, withScene bool) model.BoardResponse {
	sp := in.Config().SpellingMode()
	res := model.BoardResponse{State: in.State(), Active: []string{}}
	for _, p := range in.Active() {
		res.Active = append(res.Active, p.Name(sp))
	}
	if withScene {
		res.Scene = in.Scene()
	}
	return res
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	in, err := s.sessions.FromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	st := in.State()
	page := render.Page{
		Scene:         in.Scene(),
		ScaleNames:    chord.ScaleNames(),
		ChordNames:    chord.ChordNames(),
		CurrentTuning: st.TuningName,
		Frets:         st.Frets,
		MaxFrets:      constants.MaxFrets,
		Selected:      st.Selected,
		Identified:    st.Identified,
	}
	for _, name := range util.SortedKeys(s.cfg.Fretboard.Tunings) {
		page.Tunings = append(page.Tunings, render.TuningOption{Name: name, Notes: s.cfg.Fretboard.Tunings[name]})
	}
	if names, err := s.presets.List(r.Context()); err != nil {
		s.logger.Warn("could not list presets", zap.Error(err))
	} else {
		page.Presets = names
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WritePage(w, page); err != nil {
		s.logger.Error("could not write page", zap.Error(err))
	}
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	in, err := s.sessions.FromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := render.WriteSVG(w, in.Scene()); err != nil {
		s.logger.Error("could not write svg", zap.Error(err))
	}
}

func (s *Server) handlePNG(w http.ResponseWriter, r *http.Request) {
	in, err := s.sessions.FromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := render.WritePNG(w, in.Scene()); err != nil {
		s.logger.Error("could not write png", zap.Error(err))
	}
}

func (s *Server) handleMIDI(w http.ResponseWriter, r *http.Request) {
	in, err := s.sessions.FromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := midi.Export(&buf, in.Active()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="fretboard.mid"`)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("could not write midi", zap.Error(err))
	}
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	in, err := s.sessions.FromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, boardResponse(in, r.URL.Query().Get("scene") != ""))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	str, err := strconv.Atoi(vars["string"])
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: string %q", errBadRequest, vars["string"]))
		return
	}
	fret, err := strconv.Atoi(vars["fret"])
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: fret %q", errBadRequest, vars["fret"]))
		return
	}
	in, err := s.sessions.FromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Dispatch(fretboard.Toggle{String: str, Fret: fret}); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, lit, _ := in.Lookup(str, fret)
	writeJSON(w, model.ToggleResponse{
		BoardResponse: boardResponse(in, false),
		Position:      board.Position{String: str, Fret: fret},
		Pitch:         p.Name(in.Config().SpellingMode()),
		Lit:           lit,
	})
}

func pitchVar(r *http.Request) (note.Pitch, error) {
	return note.Parse(mux.Vars(r)["pitch"])
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	p, err := pitchVar(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, fretboard.Select{Pitch: p})
}

func (s *Server) handleEnableNote(w http.ResponseWriter, r *http.Request) {
	p, err := pitchVar(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body model.NoteRequestBody
	if r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.dispatch(w, r, fretboard.EnableNote{Pitch: p, Color: body.Color})
}

func (s *Server) handleDisableNote(w http.ResponseWriter, r *http.Request) {
	p, err := pitchVar(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, fretboard.DisableNote{Pitch: p})
}

func (s *Server) handleScale(w http.ResponseWriter, r *http.Request) {
	var body model.ScaleRequestBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, fretboard.EnableScale{Type: body.Type, Root: body.Root})
}

func (s *Server) handleArpeggio(w http.ResponseWriter, r *http.Request) {
	var body model.ScaleRequestBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, fretboard.EnableArpeggio{Type: body.Type, Root: body.Root})
}

func (s *Server) handleChord(w http.ResponseWriter, r *http.Request) {
	var body model.ChordRequestBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, fretboard.EnableChord{Symbol: body.Symbol})
}

func (s *Server) handleTuning(w http.ResponseWriter, r *http.Request) {
	var body model.TuningRequestBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, fretboard.SetTuning{Preset: body.Preset, Tuning: body.Notes})
}

func (s *Server) handleFrets(w http.ResponseWriter, r *http.Request) {
	var body model.FretsRequestBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, fretboard.SetFretCount{Count: body.Count})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, fretboard.Clear{})
}

// handleImport lights the notes of an uploaded MIDI file. With ?chord=N only
// the N-th chord of the file is lit.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: missing file: %v", errBadRequest, err))
		return
	}
	defer file.Close()

	parsed, err := midi.ReadMidi(file)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	chords := midi.Chords(parsed)
	pitches := midi.Pitches(parsed)
	if v := r.URL.Query().Get("chord"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 || i >= len(chords) {
			s.writeError(w, r, fmt.Errorf("%w: chord %q, file has %d", errBadRequest, v, len(chords)))
			return
		}
		pitches = chords[i].Pitches
	}

	in, err := s.sessions.FromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Dispatch(fretboard.Import{Pitches: pitches}); err != nil {
		s.writeError(w, r, err)
		return
	}

	sp := in.Config().SpellingMode()
	res := model.ImportResponse{Imported: []string{}, Chords: len(chords)}
	for _, p := range pitches {
		res.Imported = append(res.Imported, p.Name(sp))
	}
	writeJSON(w, res)
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	names, err := s.presets.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, model.PresetsResponse{Presets: names})
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.presets.Load(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	in, err := s.sessions.FromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st := in.State()
	p := db.Preset{
		Name:      mux.Vars(r)["name"],
		Tuning:    st.Tuning,
		Frets:     st.Frets,
		Highlight: st.Highlight,
		SavedAt:   time.Now().UTC(),
	}
	if err := s.presets.Save(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("preset saved", zap.String("name", p.Name))
	writeJSON(w, p)
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.presets.Load(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, fretboard.Restore{Tuning: p.Tuning, Frets: p.Frets, Highlight: p.Highlight})
}
