// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/ports"
)

const (
	serverName    = "studyflow"
	serverVersion = "1.0.0"
)

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server   *server.MCPServer
	provider ports.StudyProvider
	logger   hclog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(provider ports.StudyProvider) *Server {
	s := &Server{
		provider: provider,
		logger:   hclog.NewNullLogger(),
	}

	s.server = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)
	s.registerTools()

	return s
}

// SetLogger sets the logger.
func (s *Server) SetLogger(logger hclog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_active_session",
			mcp.WithDescription("Get the study session in progress, with its pomodoro count, phase and notes"),
		),
		s.handleGetActiveSession,
	)

	startTool := mcp.NewTool(
		"start_session",
		mcp.WithDescription("Start a new study session. Fails while another session is active"),
		mcp.WithString(
			"name",
			mcp.Description("Session name, up to 50 characters (default: Study Session)"),
		),
		mcp.WithNumber(
			"target_hours",
			mcp.Required(),
			mcp.Description("Study target in hours, from 0.42 to 24. Every half hour is one pomodoro"),
		),
	)
	s.server.AddTool(startTool, s.handleStartSession)

	noteTool := mcp.NewTool(
		"add_note",
		mcp.WithDescription("Attach a note to the current pomodoro of the active session"),
		mcp.WithString(
			"content",
			mcp.Required(),
			mcp.Description("Note text, 3 to 500 characters"),
		),
	)
	s.server.AddTool(noteTool, s.handleAddNote)

	s.server.AddTool(
		mcp.NewTool(
			"complete_pomodoro",
			mcp.WithDescription("Count one finished pomodoro. The session completes when it reaches its target"),
		),
		s.handleCompletePomodoro,
	)

	s.server.AddTool(
		mcp.NewTool(
			"abandon_session",
			mcp.WithDescription("Abandon the active session. Completed pomodoros stay in history"),
		),
		s.handleAbandonSession,
	)

	dayTool := mcp.NewTool(
		"get_day_stats",
		mcp.WithDescription("Get study totals for one local calendar day"),
		mcp.WithString(
			"date",
			mcp.Description("Date as YYYY-MM-DD (default: today)"),
		),
	)
	s.server.AddTool(dayTool, s.handleGetDayStats)

	weekTool := mcp.NewTool(
		"compare_weeks",
		mcp.WithDescription("Compare study hours of a Sunday-to-Saturday week with the week before"),
		mcp.WithString(
			"date",
			mcp.Description("Any date inside the week, YYYY-MM-DD (default: this week)"),
		),
	)
	s.server.AddTool(weekTool, s.handleCompareWeeks)

	s.server.AddTool(
		mcp.NewTool(
			"get_rewards",
			mcp.WithDescription("Get today's level, study streak and the material collection"),
		),
		s.handleGetRewards,
	)
}

// Start serves MCP requests over stdio until ctx is done or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	s.mu.Unlock()

	stdio := server.NewStdioServer(s.server)
	stdio.SetErrorLogger(s.logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}))

	s.logger.Info("serving MCP over stdio", "name", serverName, "version", serverVersion)
	err := stdio.Listen(runCtx, os.Stdin, os.Stdout)
	if err != nil && runCtx.Err() != nil {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

// sessionView is the tool-facing shape of a session.
func sessionView(session *domain.Session) map[string]interface{} {
	notes := make([]map[string]interface{}, 0, len(session.Notes))
	for _, n := range session.Notes {
		notes = append(notes, map[string]interface{}{
			"pomodoro":  n.PomodoroNumber,
			"content":   n.Content,
			"timestamp": n.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	data := map[string]interface{}{
		"id":                  session.ID,
		"name":                session.Name,
		"status":              string(session.Status),
		"phase":               string(session.CurrentPhase),
		"target_hours":        session.TargetHours,
		"pomodoros_completed": session.PomodorosCompleted,
		"total_pomodoros":     session.TotalPomodoros,
		"progress_percent":    session.Progress(),
		"study_hours":         session.StudyHours(),
		"started_at":          session.StartTime.Format("2006-01-02T15:04:05Z07:00"),
		"notes":               notes,
	}
	if session.EndTime != nil {
		data["ended_at"] = session.EndTime.Format("2006-01-02T15:04:05Z07:00")
	}
	if session.Reward != "" {
		data["reward"] = session.Reward
	}
	return data
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// handleGetActiveSession handles the get_active_session tool.
func (s *Server) handleGetActiveSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.provider.ActiveSession(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get active session: %v", err)), nil
	}
	if session == nil {
		return jsonResult(map[string]interface{}{
			"active_session": nil,
			"message":        "No active study session",
		})
	}
	return jsonResult(map[string]interface{}{"active_session": sessionView(session)})
}

// handleStartSession handles the start_session tool.
func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hours, err := request.RequireFloat("target_hours")
	if err != nil {
		return mcp.NewToolResultError("target_hours is required: " + err.Error()), nil
	}
	name := request.GetString("name", "")

	session, err := s.provider.StartSession(ctx, name, hours)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start session: %v", err)), nil
	}
	s.logger.Debug("session started over MCP", "id", session.ID)
	return jsonResult(sessionView(session))
}

// handleAddNote handles the add_note tool.
func (s *Server) handleAddNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content is required: " + err.Error()), nil
	}

	session, err := s.provider.AddNote(ctx, content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add note: %v", err)), nil
	}
	return jsonResult(sessionView(session))
}

// handleCompletePomodoro handles the complete_pomodoro tool.
func (s *Server) handleCompletePomodoro(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.provider.CompletePomodoro(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete pomodoro: %v", err)), nil
	}

	result := sessionView(session)
	if session.Status == domain.SessionStatusCompleted {
		material, err := s.provider.MaterialAward(ctx, session.ID)
		if err != nil {
			s.logger.Warn("no material for completed session", "id", session.ID, "error", err)
			result["material_error"] = err.Error()
		} else {
			result["material"] = string(material)
		}
	}
	return jsonResult(result)
}

// handleAbandonSession handles the abandon_session tool.
func (s *Server) handleAbandonSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.provider.AbandonSession(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to abandon session: %v", err)), nil
	}
	return jsonResult(sessionView(session))
}

// handleGetDayStats handles the get_day_stats tool.
func (s *Server) handleGetDayStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.provider.DayStats(ctx, request.GetString("date", ""))
	if err != nil && stats.Date == "" {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get day stats: %v", err)), nil
	}
	if err != nil {
		// The totals are good even when caching them failed.
		s.logger.Warn("day stats not cached", "date", stats.Date, "error", err)
	}
	return jsonResult(stats)
}

// handleCompareWeeks handles the compare_weeks tool.
func (s *Server) handleCompareWeeks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cmp, err := s.provider.CompareWeeks(ctx, request.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compare weeks: %v", err)), nil
	}
	return jsonResult(cmp)
}

// handleGetRewards handles the get_rewards tool.
func (s *Server) handleGetRewards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.provider.DailyRewardData(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get rewards: %v", err)), nil
	}

	level := domain.DailyLevelInfo(data.TodayLevel)
	result := map[string]interface{}{
		"today_level":      data.TodayLevel,
		"level_title":      level.Title,
		"next_level_hours": level.NextLevelHours,
		"today_hours":      data.TodayHoursStudied,
		"today_sessions":   data.TodaySessionsCompleted,
		"current_streak":   data.CurrentStreak,
		"longest_streak":   data.LongestStreak,
		"materials":        data.MaterialCollection,
		"materials_total":  data.MaterialCollection.Total(),
	}
	return jsonResult(result)
}
