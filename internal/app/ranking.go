package app

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Ranking derives scores, leaderboards and statistics from the attempt log.
// Every method is a read-only aggregation over one scan of the log.
type Ranking struct {
	scorer
	users   UserDirectory
	opts    options
	metrics *observability.Metrics
}

func NewRanking(attempts AttemptStore, questions QuestionCatalog, users UserDirectory, opts ...Option) *Ranking {
	o := newOptions(opts)
	return &Ranking{
		scorer:  scorer{attempts: attempts, questions: questions, logger: o.logger},
		users:   users,
		opts:    o,
		metrics: o.metrics,
	}
}

// ResultsFor scores userID's attempts since the given bound; nil since means all time.
// It returns nil when the user has no attempts in range.
func (r *Ranking) ResultsFor(ctx context.Context, userID string, since *time.Time) (*domain.Results, error) {
	return r.resultsFor(ctx, userID, since)
}

// Since resolves a period to its lower bound relative to now.
func (r *Ranking) Since(p Period) *time.Time {
	return PeriodStart(p, r.opts.today())
}

// TopRanks builds the leaderboard for the period: points descending, then average
// response time ascending. Ranks are dense and shared by equal points. A positive limit
// keeps every entry whose rank is at most limit, so ties at the cut-off are all included.
func (r *Ranking) TopRanks(ctx context.Context, period Period, limit int) ([]domain.RankEntry, error) {
	defer r.metrics.ObserveRanking("top_ranks", time.Now())

	since := r.Since(period)
	attempts, err := r.attempts.FindSince(ctx, since)
	if err != nil {
		return nil, err
	}
	questions, err := r.questionsFor(ctx, attempts)
	if err != nil {
		return nil, err
	}

	order, byUser := groupByUser(attempts)
	entries := make([]domain.RankEntry, 0, len(order))
	for _, userID := range order {
		res := r.summarize(byUser[userID], questions)
		if res == nil {
			continue
		}
		user, err := r.users.Get(ctx, userID)
		if errors.Is(err, domain.ErrUserNotFound) {
			r.logger.Warn("skipping attempts of unknown user", zap.String("user_id", userID))
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.RankEntry{
			Score:           res.TotalPoints,
			Username:        user.Username,
			AvgResponseTime: res.AvgResponseTime,
		})
	}
	return rankEntries(entries, limit), nil
}

// rankEntries sorts, assigns dense ranks and applies the rank limit.
func rankEntries(entries []domain.RankEntry, limit int) []domain.RankEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].AvgResponseTime != entries[j].AvgResponseTime {
			return entries[i].AvgResponseTime < entries[j].AvgResponseTime
		}
		return entries[i].Username < entries[j].Username
	})

	for i := range entries {
		switch {
		case i == 0:
			entries[i].Rank = 1
		case entries[i].Score == entries[i-1].Score:
			entries[i].Rank = entries[i-1].Rank
		default:
			entries[i].Rank = entries[i-1].Rank + 1
		}
	}

	if limit <= 0 {
		return entries
	}
	cut := len(entries)
	for i, e := range entries {
		if e.Rank > limit {
			cut = i
			break
		}
	}
	return entries[:cut]
}

// PersonalRank returns the user's all-time rank, or -1 if they never attempted a question.
func (r *Ranking) PersonalRank(ctx context.Context, username string) (int, error) {
	entries, err := r.TopRanks(ctx, PeriodAllTime, 0)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.Username == username {
			return e.Rank, nil
		}
	}
	return -1, nil
}

// DailyBasicStats computes today's attendance and score metrics for non-admin users.
func (r *Ranking) DailyBasicStats(ctx context.Context) (domain.DailyStats, error) {
	defer r.metrics.ObserveRanking("daily_basic_stats", time.Now())

	today := startOfDay(r.opts.today())
	var (
		totalUsers int
		attempts   []domain.Attempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalUsers, err = r.users.CountNonAdmin(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		attempts, err = r.attempts.FindSince(gctx, &today)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.DailyStats{}, err
	}

	// Attendees come from the same scan as the scores.
	order, byUser := groupByUser(attempts)
	attendees, err := r.nonAdmin(ctx, order)
	if err != nil {
		return domain.DailyStats{}, err
	}
	questions, err := r.questionsFor(ctx, attempts)
	if err != nil {
		return domain.DailyStats{}, err
	}

	stats := domain.DailyStats{
		DailyAttendees:  len(attendees),
		TotalUsersCount: totalUsers,
	}
	if totalUsers > 0 {
		stats.AttendeePercentage = int(math.Round(100 * float64(len(attendees)) / float64(totalUsers)))
	}

	var points int
	for _, userID := range attendees {
		res := r.summarize(byUser[userID], questions)
		if res == nil {
			continue
		}
		points += res.TotalPoints
		if !res.Perfect() {
			continue
		}
		stats.DailyPerfectScores++
		// The "quickest quiz" is the summed time of every perfect quiz, not a minimum.
		for _, d := range res.Details {
			stats.DailyQuickestQuiz += d.ResponseTime
		}
	}
	if len(attendees) > 0 {
		stats.DailyAverage = round(float64(points)/float64(len(attendees)), 2)
	}
	stats.DailyQuickestQuiz = round(stats.DailyQuickestQuiz, 3)
	return stats, nil
}

// nonAdmin keeps the registered, non-admin users among ids.
func (r *Ranking) nonAdmin(ctx context.Context, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		user, err := r.users.Get(ctx, id)
		if errors.Is(err, domain.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !user.IsAdmin {
			out = append(out, id)
		}
	}
	return out, nil
}

// ToughestAndEasiest groups today's attempts per question into wrong and right buckets and
// returns, for each bucket, every question tied for the highest count.
func (r *Ranking) ToughestAndEasiest(ctx context.Context) (domain.Difficulty, error) {
	defer r.metrics.ObserveRanking("toughest_and_easiest", time.Now())

	today := startOfDay(r.opts.today())
	attempts, err := r.attempts.FindSince(ctx, &today)
	if err != nil {
		return domain.Difficulty{}, err
	}
	questions, err := r.questionsFor(ctx, attempts)
	if err != nil {
		return domain.Difficulty{}, err
	}

	toughest, easiest := newTallies(), newTallies()
	for _, a := range attempts {
		q, ok := questions[a.QuestionID]
		if !ok {
			r.logger.Warn("skipping attempt with unknown question",
				zap.String("user_id", a.UserID),
				zap.String("question_id", a.QuestionID))
			continue
		}
		if a.ChoiceID == q.CorrectChoiceID {
			easiest.add(q, a.ResponseTimeSeconds)
		} else {
			toughest.add(q, a.ResponseTimeSeconds)
		}
	}
	return domain.Difficulty{Toughest: toughest.max(), Easiest: easiest.max()}, nil
}

type tallies struct {
	order []string
	byID  map[string]*domain.QuestionTally
}

func newTallies() *tallies {
	return &tallies{byID: make(map[string]*domain.QuestionTally)}
}

func (t *tallies) add(q domain.Question, responseTime float64) {
	tally, ok := t.byID[q.ID]
	if !ok {
		tally = &domain.QuestionTally{QuestionID: q.ID, Title: q.Title}
		t.byID[q.ID] = tally
		t.order = append(t.order, q.ID)
	}
	tally.Count++
	tally.TotalResponseTime += responseTime
}

// max returns all tallies sharing the highest count, in first-seen order.
func (t *tallies) max() []domain.QuestionTally {
	best := 0
	for _, tally := range t.byID {
		if tally.Count > best {
			best = tally.Count
		}
	}
	out := make([]domain.QuestionTally, 0)
	for _, id := range t.order {
		if tally := t.byID[id]; tally.Count == best {
			out = append(out, *tally)
		}
	}
	return out
}

// ScoreHistory walks the user's correct answers since the start of since's day and
// groups them per calendar day. The day's time is averaged pairwise as each answer
// arrives: avg = (avg + t) / 2.
func (r *Ranking) ScoreHistory(ctx context.Context, userID string, since time.Time) (domain.ScoreHistory, error) {
	defer r.metrics.ObserveRanking("score_history", time.Now())

	from := startOfDay(since.In(r.opts.loc))
	attempts, err := r.attempts.FindByUser(ctx, userID, &from)
	if err != nil {
		return domain.ScoreHistory{}, err
	}
	questions, err := r.questionsFor(ctx, attempts)
	if err != nil {
		return domain.ScoreHistory{}, err
	}

	history := domain.ScoreHistory{Scores: []domain.DailyScore{}, Times: []domain.DailyTime{}}
	for _, a := range attempts {
		q, ok := questions[a.QuestionID]
		if !ok || a.ChoiceID != q.CorrectChoiceID {
			continue
		}
		day := startOfDay(a.Date.In(r.opts.loc))
		last := len(history.Scores) - 1
		if last >= 0 && history.Scores[last].Day.Equal(day) {
			history.Scores[last].Correct++
			history.Times[last].AvgResponseTime = (history.Times[last].AvgResponseTime + a.ResponseTimeSeconds) / 2
			continue
		}
		history.Scores = append(history.Scores, domain.DailyScore{Day: day, Correct: 1})
		history.Times = append(history.Times, domain.DailyTime{Day: day, AvgResponseTime: a.ResponseTimeSeconds})
	}
	return history, nil
}

// UserOverview lists every non-admin user with their all-time points, for the admin view.
func (r *Ranking) UserOverview(ctx context.Context) ([]domain.UserSummary, error) {
	defer r.metrics.ObserveRanking("user_overview", time.Now())

	users, err := r.users.List(ctx)
	if err != nil {
		return nil, err
	}
	attempts, err := r.attempts.FindSince(ctx, nil)
	if err != nil {
		return nil, err
	}
	questions, err := r.questionsFor(ctx, attempts)
	if err != nil {
		return nil, err
	}
	_, byUser := groupByUser(attempts)

	out := make([]domain.UserSummary, 0, len(users))
	for _, u := range users {
		if u.IsAdmin {
			continue
		}
		summary := domain.UserSummary{UserID: u.ID, Username: u.Username, LastSeen: u.LastSeen}
		if res := r.summarize(byUser[u.ID], questions); res != nil {
			summary.TotalPoints = res.TotalPoints
			summary.TotalQuestions = res.TotalQuestions
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
