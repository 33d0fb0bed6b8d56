package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"daily-quiz-service/internal/adminform"
	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"go.uber.org/zap"
)

// Deps are the collaborators of the HTTP and websocket handlers.
type Deps struct {
	Session   *app.QuizSession
	Ranking   *app.Ranking
	Questions app.QuestionStore
	Users     app.UserDirectory
	Logger    *zap.Logger
	Location  *time.Location
	// LeaderboardLimit is the default rank limit of the top stat.
	LeaderboardLimit int
	// HistoryDays bounds the myhistory stat.
	HistoryDays int
	Now         func() time.Time
}

// Handler serves the quiz JSON API.
type Handler struct {
	Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.HistoryDays <= 0 {
		deps.HistoryDays = 30
	}
	return &Handler{Deps: deps}
}

// Register mounts the API on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /quiz/next", h.authenticated(h.next))
	mux.Handle("POST /quiz/answer", h.authenticated(h.answer))
	mux.Handle("GET /quiz/stats", h.authenticated(h.stats))
	mux.Handle("GET /quiz/rank", h.authenticated(h.rank))
	mux.Handle("GET /quiz/results", h.authenticated(h.results))

	mux.Handle("GET /quiz/admin/questions", h.admin(h.listQuestions))
	mux.Handle("POST /quiz/admin/questions", h.admin(h.saveQuestion))
	mux.Handle("DELETE /quiz/admin/questions/{id}", h.admin(h.deleteQuestion))
	mux.Handle("GET /quiz/admin/users", h.admin(h.listUsers))
}

type userHandler func(w http.ResponseWriter, r *http.Request, user domain.User)

// authenticated resolves the caller from the X-User-ID header or userId query parameter.
// Accounts are owned upstream; unknown ids are rejected.
func (h *Handler) authenticated(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.caller(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next(w, r, user)
	})
}

func (h *Handler) admin(next userHandler) http.Handler {
	return h.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if !user.IsAdmin {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "admin only"})
			return
		}
		next(w, r, user)
	})
}

var errUnauthenticated = errors.New("missing user id")

func (h *Handler) caller(r *http.Request) (domain.User, error) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		id = r.URL.Query().Get("userId")
	}
	if id == "" {
		return domain.User{}, errUnauthenticated
	}
	user, err := h.Users.Get(r.Context(), id)
	if err != nil {
		return domain.User{}, err
	}
	if err := h.Users.TouchLastSeen(r.Context(), id, h.Now()); err != nil {
		h.Logger.Debug("touch last seen failed", zap.String("user_id", id), zap.Error(err))
	}
	return user, nil
}

type stepBody struct {
	Status   string                    `json:"status"`
	Question *domain.DeliveredQuestion `json:"question,omitempty"`
	Results  *domain.Results           `json:"results,omitempty"`
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request, user domain.User) {
	body, err := h.showNext(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// showNext is shared with the websocket handler.
func (h *Handler) showNext(ctx context.Context, userID string) (stepBody, error) {
	if !h.Session.IsWithinQuizWindow(app.WindowInside) {
		return stepBody{}, domain.ErrOutsideQuizWindow
	}
	step, err := h.Session.ShowNext(ctx, userID)
	if errors.Is(err, domain.ErrNoQuizToday) {
		return stepBody{Status: "no_quiz"}, nil
	}
	if err != nil {
		return stepBody{}, err
	}
	if step.Completed() {
		return stepBody{Status: "complete", Results: step.Results}, nil
	}
	return stepBody{Status: "question", Question: step.Question}, nil
}

type answerRequest struct {
	ChoiceID int `json:"choiceId"`
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid answer payload"})
		return
	}
	outcome, err := h.submit(r.Context(), user.ID, req.ChoiceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) submit(ctx context.Context, userID string, choiceID int) (app.AnswerOutcome, error) {
	if !h.Session.IsWithinQuizWindow(app.WindowInside) {
		return app.AnswerOutcome{}, domain.ErrOutsideQuizWindow
	}
	return h.Session.Answer(ctx, userID, choiceID)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request, user domain.User) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		body any
		err  error
	)
	switch q.Get("stat") {
	case "basic":
		body, err = h.Ranking.DailyBasicStats(ctx)
	case "top":
		var period app.Period
		period, err = app.ParsePeriod(q.Get("period"))
		if err != nil {
			break
		}
		limit := h.LeaderboardLimit
		if raw := q.Get("limit"); raw != "" {
			if limit, err = strconv.Atoi(raw); err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid limit"})
				return
			}
		}
		body, err = h.Ranking.TopRanks(ctx, period, limit)
	case "easytough":
		body, err = h.Ranking.ToughestAndEasiest(ctx)
	case "myhistory":
		since := h.Now().In(h.Location).AddDate(0, 0, -h.HistoryDays)
		body, err = h.Ranking.ScoreHistory(ctx, user.ID, since)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unknown stat"})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

type rankBody struct {
	Username string `json:"username"`
	Rank     int    `json:"rank"`
}

func (h *Handler) rank(w http.ResponseWriter, r *http.Request, user domain.User) {
	username := r.URL.Query().Get("username")
	if username == "" {
		username = user.Username
	}
	rank, err := h.Ranking.PersonalRank(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rankBody{Username: username, Rank: rank})
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request, user domain.User) {
	period, err := app.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.Ranking.ResultsFor(r.Context(), user.ID, h.Ranking.Since(period))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res == nil {
		res = &domain.Results{Details: []domain.ResultDetail{}}
	}
	writeJSON(w, http.StatusOK, res)
}

type questionsBody struct {
	Count     int               `json:"count"`
	Questions []domain.Question `json:"questions"`
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request, _ domain.User) {
	now := h.Now().In(h.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.Location)
	questions, err := h.Questions.ListScheduledSince(r.Context(), today)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questionsBody{Count: len(questions), Questions: questions})
}

// saveQuestion accepts the admin page form. Edits are only allowed while the quiz is closed.
func (h *Handler) saveQuestion(w http.ResponseWriter, r *http.Request, user domain.User) {
	if !h.Session.IsWithinQuizWindow(app.WindowOutside) {
		h.writeError(w, r, domain.ErrOutsideQuizWindow)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid form"})
		return
	}
	q, err := adminform.Decode(r.PostForm, h.Now().In(h.Location))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.Questions.Save(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Logger.Info("question saved",
		zap.String("username", user.Username),
		zap.String("question_id", saved.ID))
	writeJSON(w, http.StatusCreated, map[string]string{"questionId": saved.ID})
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request, user domain.User) {
	if !h.Session.IsWithinQuizWindow(app.WindowOutside) {
		h.writeError(w, r, domain.ErrOutsideQuizWindow)
		return
	}
	id := r.PathValue("id")
	if err := h.Questions.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Logger.Info("question deleted",
		zap.String("username", user.Username),
		zap.String("question_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request, _ domain.User) {
	users, err := h.Ranking.UserOverview(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type errorBody struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnauthenticated), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrOutsideQuizWindow):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNothingShown):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuestion), errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidChoice):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
