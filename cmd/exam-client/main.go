// Command exam-client is a terminal client for taking an exam: it logs in,
// lists open tests, drives a timed attempt, and renders the result analysis.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/examlet/examlet-backend/internal/analysis"
	"github.com/examlet/examlet-backend/internal/examsession"
	"github.com/examlet/examlet-backend/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func main() {
	baseURL := flag.String("server", "http://localhost:8080", "Backend base URL")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	reader := bufio.NewReader(os.Stdin)
	api := newAPIClient(*baseURL)
	ctx := context.Background()

	// ─── Login ─────────────────────────────────────────────────────────
	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read password")
	}

	student, err := api.login(ctx, strings.TrimSpace(email), string(bytePassword))
	if err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	}
	fmt.Printf("Welcome, %s!\n\n", student.Name)

	// Background notification poller for the whole session.
	pollCtx, pollCancel := context.WithCancel(ctx)
	defer pollCancel()
	poller := examsession.NewNotificationPoller(api, 15*time.Second,
		func(_ []model.Notification, unread int) {
			if unread > 0 {
				fmt.Printf("\n[%d unread notification(s)]\n", unread)
			}
		}, log)
	go poller.Run(pollCtx)

	// ─── Pick a test ───────────────────────────────────────────────────
	tests, err := api.listTests(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list tests")
	}
	if len(tests) == 0 {
		fmt.Println("No open tests right now.")
		return
	}
	fmt.Println("Open tests:")
	for i, t := range tests {
		fmt.Printf("  %d. %s (%d min)\n", i+1, t.Title, t.DurationMinutes)
	}
	fmt.Print("Choose a test: ")
	choiceStr, _ := reader.ReadString('\n')
	choice, err := strconv.Atoi(strings.TrimSpace(choiceStr))
	if err != nil || choice < 1 || choice > len(tests) {
		fmt.Println("Invalid choice.")
		return
	}

	payload, err := api.fetchPayload(ctx, tests[choice-1].ID.String())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch exam")
	}

	// ─── Run the attempt ───────────────────────────────────────────────
	session := examsession.New(api)
	session.Start(payload)

	tickerCtx, tickerCancel := context.WithCancel(ctx)
	defer tickerCancel()
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-tickerCtx.Done():
				return
			case <-ticker.C:
				session.Tick(ctx)
			}
		}
	}()

	runAttempt(ctx, reader, session, payload)
	tickerCancel()

	result := session.Result()
	if result == nil {
		fmt.Println("No result available.")
		return
	}

	// ─── Render the analysis ───────────────────────────────────────────
	detail, err := api.fetchResult(ctx, result.ID.String())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch result")
	}
	renderReport(analysis.Build(detail.Result, detail.Test, detail.Questions))
}

func runAttempt(ctx context.Context, reader *bufio.Reader, session *examsession.Session, payload *model.TestPayload) {
	help := "Commands: 1-9 select option, n save&next, m mark&next, c clear, g <num> goto, s submit, ? help"
	fmt.Println(help)

	for session.Phase() == examsession.PhaseInProgress {
		idx := session.Current()
		q := payload.Questions[idx]
		fmt.Printf("\n[%s] Q%d/%d: %s\n",
			formatClock(session.Remaining()), idx+1, len(payload.Questions), q.Text)
		for i, opt := range q.Options {
			marker := " "
			if session.Answer(idx) == i {
				marker = "*"
			}
			fmt.Printf("  %s %d. %s\n", marker, i+1, opt)
		}

		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "n":
			session.SaveAndNext()
		case "m":
			session.MarkForReview()
		case "c":
			session.ClearResponse()
		case "g":
			if len(fields) > 1 {
				if target, err := strconv.Atoi(fields[1]); err == nil {
					session.NavigateTo(target - 1)
				}
			}
		case "s":
			sum := session.InitiateSubmit()
			fmt.Printf("Answered %d/%d, %d marked, %d not visited. Submit? (y/N) ",
				sum.Answered, sum.Total, sum.MarkedForView, sum.NotVisited)
			confirm, _ := reader.ReadString('\n')
			if strings.TrimSpace(confirm) == "y" {
				if err := session.ConfirmSubmit(ctx); err != nil {
					fmt.Printf("Submit failed: %v — your answers are intact, try again.\n", err)
				}
			}
		case "?":
			fmt.Println(help)
		default:
			if opt, err := strconv.Atoi(fields[0]); err == nil {
				session.SelectOption(opt - 1)
			}
		}
	}
}

func renderReport(report analysis.Report) {
	fmt.Printf("\n=== %s ===\n", report.TestTitle)
	fmt.Printf("Score: %d/%d (%.1f%%) — %d correct, %d wrong, %d skipped\n",
		report.Score, report.TotalQuestions, report.Percentage,
		report.CorrectAnswers, report.WrongAnswers, report.Skipped)

	if !report.DetailAvailable {
		fmt.Println("Per-question breakdown is unavailable (some questions were removed).")
		return
	}
	for i, row := range report.Rows {
		fmt.Printf("\nQ%d [%s]: %s\n", i+1, row.Verdict, row.Question)
		for j, opt := range row.Options {
			tags := ""
			if j == row.CorrectIndex {
				tags += " (correct)"
			}
			if j == row.SelectedIndex {
				tags += " (your answer)"
			}
			fmt.Printf("  %d. %s%s\n", j+1, opt, tags)
		}
	}
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ─── API client ────────────────────────────────────────────────────────

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil {
		return fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *apiClient) login(ctx context.Context, email, password string) (*model.Student, error) {
	var data struct {
		Token   string        `json:"token"`
		Student model.Student `json:"student"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/student/login",
		map[string]string{"email": email, "password": password}, &data)
	if err != nil {
		return nil, err
	}
	c.token = data.Token
	return &data.Student, nil
}

func (c *apiClient) listTests(ctx context.Context) ([]model.Test, error) {
	var data struct {
		Tests []model.Test `json:"tests"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tests", nil, &data); err != nil {
		return nil, err
	}
	return data.Tests, nil
}

func (c *apiClient) fetchPayload(ctx context.Context, testID string) (*model.TestPayload, error) {
	var data struct {
		Test model.TestPayload `json:"test"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tests/"+testID+"/questions", nil, &data); err != nil {
		return nil, err
	}
	return &data.Test, nil
}

func (c *apiClient) fetchResult(ctx context.Context, resultID string) (*model.ResultDetail, error) {
	var data model.ResultDetail
	if err := c.do(ctx, http.MethodGet, "/api/v1/exam/result/"+resultID, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Submit implements examsession.Submitter.
func (c *apiClient) Submit(ctx context.Context, testID string, answers []model.SubmittedAnswer) (*model.Result, error) {
	var data struct {
		Result model.Result `json:"result"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/exam/submit", model.SubmitExamRequest{
		TestID:  testID,
		Answers: answers,
	}, &data)
	if err != nil {
		return nil, err
	}
	return &data.Result, nil
}

// FetchNotifications implements examsession.NotificationFetcher.
func (c *apiClient) FetchNotifications(ctx context.Context) ([]model.Notification, int, error) {
	var data struct {
		Notifications []model.Notification `json:"notifications"`
		UnreadCount   int                  `json:"unread_count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/notifications", nil, &data); err != nil {
		return nil, 0, err
	}
	return data.Notifications, data.UnreadCount, nil
}
