// Package mcp exposes conversation turns as Model Context Protocol tools so
// that an MCP host can drive trip planning.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/voyager/archive"
	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/pkg/logging"
	"github.com/sweetpotato0/voyager/runner"
	"github.com/sweetpotato0/voyager/state"
)

// Tool names.
const (
	ToolTravelTurn     = "travel_turn"
	ToolListCategories = "list_categories"
	ToolItineraries    = "list_itineraries"
)

// TurnInput is the argument of travel_turn.
type TurnInput struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"Conversation to continue; omit to start a new one"`
	Message        string `json:"message" jsonschema:"What the traveller says"`
}

// TurnOutput is the structured result of travel_turn.
type TurnOutput struct {
	ConversationID string   `json:"conversation_id"`
	Replies        []string `json:"replies"`
	Stage          string   `json:"stage"`
	OfferID        string   `json:"offer_id,omitempty"`
	Itinerary      []string `json:"itinerary,omitempty"`
}

// CategoriesOutput lists what the catalog offers.
type CategoriesOutput struct {
	Categories []CategoryPlaces `json:"categories"`
}

// CategoryPlaces is one category and the places it covers.
type CategoryPlaces struct {
	Category string   `json:"category"`
	Places   []string `json:"places"`
}

// ItinerariesInput is the argument of list_itineraries.
type ItinerariesInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"Conversation whose archived itineraries to list"`
}

// ItinerariesOutput lists archived itineraries, newest first.
type ItinerariesOutput struct {
	Itineraries []ArchivedItinerary `json:"itineraries"`
}

// ArchivedItinerary is one archived itinerary.
type ArchivedItinerary struct {
	ID        string   `json:"id"`
	PackageID string   `json:"package_id"`
	Place     string   `json:"place"`
	Round     int      `json:"round"`
	Days      []string `json:"days"`
	CreatedAt string   `json:"created_at"`
}

// Server wires the turn runner into an MCP server.
type Server struct {
	runner  *runner.Runner
	catalog *catalog.Catalog
	archive archive.Store
	version string
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithArchive enables list_itineraries over store.
func WithArchive(store archive.Store) Option {
	return func(s *Server) { s.archive = store }
}

// WithVersion sets the version advertised to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server.
func New(r *runner.Runner, cat *catalog.Catalog, opts ...Option) *Server {
	s := &Server{
		runner:  r,
		catalog: cat,
		version: "0.1.0",
		logger:  logging.WithComponent("mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build returns the SDK server with every tool registered.
func (s *Server) Build() *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "voyager",
		Title:   "Voyager trip planner",
		Version: s.version,
	}, nil)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolTravelTurn,
		Description: "Send one traveller message to a trip-planning conversation and get the assistant replies",
	}, s.travelTurn)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolListCategories,
		Description: "List the trip categories and the places offered for each",
	}, s.listCategories)

	if s.archive != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        ToolItineraries,
			Description: "List the itineraries a conversation has produced, newest first",
		}, s.listItineraries)
	}
	return server
}

// ServeStdio runs the server over stdin and stdout until ctx is done or the
// client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.InfoContext(ctx, "serving MCP over stdio")
	return s.Build().Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) travelTurn(ctx context.Context, req *sdkmcp.CallToolRequest, in TurnInput) (*sdkmcp.CallToolResult, TurnOutput, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, TurnOutput{}, fmt.Errorf("message is required")
	}
	resp, err := s.runner.Run(ctx, in.ConversationID, in.Message)
	if resp == nil {
		return nil, TurnOutput{}, err
	}
	if err != nil {
		s.logger.WarnContext(ctx, "turn ended with error", "conversation_id", resp.ConversationID, "error", err)
	}

	out := TurnOutput{
		ConversationID: resp.ConversationID,
		Replies:        append([]string{}, resp.Replies...),
		Stage:          string(resp.Stage),
	}
	if resp.Offer != nil {
		out.OfferID = resp.Offer.ID
		out.Itinerary = dayLines(resp.Itinerary)
	}

	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: strings.Join(resp.Replies, "\n\n")},
		},
	}, out, nil
}

func (s *Server) listCategories(ctx context.Context, req *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, CategoriesOutput, error) {
	out := CategoriesOutput{Categories: []CategoryPlaces{}}
	var lines []string
	for _, c := range s.catalog.Categories() {
		places := s.catalog.Places(c)
		out.Categories = append(out.Categories, CategoryPlaces{Category: c, Places: places})
		lines = append(lines, fmt.Sprintf("%s: %s", c, strings.Join(places, ", ")))
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: strings.Join(lines, "\n")},
		},
	}, out, nil
}

func (s *Server) listItineraries(ctx context.Context, req *sdkmcp.CallToolRequest, in ItinerariesInput) (*sdkmcp.CallToolResult, ItinerariesOutput, error) {
	if in.ConversationID == "" {
		return nil, ItinerariesOutput{}, fmt.Errorf("conversation_id is required")
	}
	entries, err := s.archive.List(ctx, in.ConversationID)
	if err != nil {
		return nil, ItinerariesOutput{}, fmt.Errorf("list itineraries: %w", err)
	}
	out := ItinerariesOutput{Itineraries: make([]ArchivedItinerary, 0, len(entries))}
	for _, e := range entries {
		out.Itineraries = append(out.Itineraries, ArchivedItinerary{
			ID:        e.ID,
			PackageID: e.PackageID,
			Place:     e.Place,
			Round:     e.Round,
			Days:      dayLines(e.Days),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: fmt.Sprintf("%d itineraries", len(entries))},
		},
	}, out, nil
}

func dayLines(days []state.DayEntry) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, fmt.Sprintf("Day %d: %s", d.Day, d.Plan))
	}
	return out
}
