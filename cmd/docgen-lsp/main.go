package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/mithrel/docgen/internal/config"
	"github.com/mithrel/docgen/internal/editor"
	"github.com/mithrel/docgen/pkg/api"
	"github.com/mithrel/docgen/pkg/models"
)

type request struct {
	RPC    string           `json:"jsonrpc"`
	ID     *json.RawMessage `json:"id,omitempty"`
	Method string           `json:"method"`
	Params json.RawMessage  `json:"params,omitempty"`
}

type response struct {
	RPC    string           `json:"jsonrpc"`
	ID     *json.RawMessage `json:"id,omitempty"`
	Result interface{}      `json:"result,omitempty"`
	Error  interface{}      `json:"error,omitempty"`
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
}

type serverCapabilities struct {
	CompletionProvider completionProvider `json:"completionProvider"`
}

type completionProvider struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

type completionItem struct {
	Label  string `json:"label"`
	Kind   int    `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type completionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     position               `json:"position"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type completionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []completionItem `json:"items"`
}

// LSP completion item kinds.
const (
	kindField = 5
	kindValue = 12
)

const draftSuffix = ".docgen.md"

var logger *log.Logger

// main serves completions for section drafts: field names after "@@ " and
// the options of radio, select and checkbox fields inside their block.
func main() {
	logFile, err := os.Create(filepath.Join(os.TempDir(), "docgen-lsp.log"))
	if err != nil {
		panic(err)
	}
	defer logFile.Close()

	logger = log.New(logFile, "[LSP] ", log.LstdFlags)
	logger.Println("Server started")

	tpl, err := loadTemplate()
	if err != nil {
		logger.Printf("Error loading template: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		msg, err := readMessage(reader)
		if err != nil {
			if err != io.EOF {
				logger.Printf("Error reading message: %v", err)
			}
			return
		}
		handleMessage(tpl, msg)
	}
}

// loadTemplate reads the configured project type the same way the CLI does.
func loadTemplate() (models.Template, error) {
	v := viper.New()
	if err := config.Load(context.Background(), v); err != nil {
		return models.Template{}, err
	}
	return models.LoadTemplate(api.ProjectType(v.GetString("project_type")))
}

// readMessage reads one Content-Length framed JSON-RPC message.
func readMessage(reader *bufio.Reader) ([]byte, error) {
	contentLength := 0
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length: ") {
			length, err := strconv.Atoi(strings.TrimPrefix(line, "Content-Length: "))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = length
		}
	}

	if contentLength <= 0 {
		return nil, fmt.Errorf("missing Content-Length")
	}

	msg := make([]byte, contentLength)
	if _, err := io.ReadFull(reader, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func handleMessage(tpl models.Template, msg []byte) {
	logger.Printf("Received: %s", string(msg))

	var req request
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Printf("Error unmarshaling: %v", err)
		return
	}

	switch req.Method {
	case "initialize":
		resp := initializeResult{
			Capabilities: serverCapabilities{
				CompletionProvider: completionProvider{TriggerCharacters: []string{"@", " "}},
			},
		}
		sendResponse(response{RPC: "2.0", ID: req.ID, Result: resp})
	case "textDocument/completion":
		var params completionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			logger.Printf("Error parsing completion params: %v", err)
		}
		resp := completionList{Items: completions(tpl, params)}
		sendResponse(response{RPC: "2.0", ID: req.ID, Result: resp})
	case "shutdown":
		sendResponse(response{RPC: "2.0", ID: req.ID, Result: nil})
	case "exit":
		os.Exit(0)
	}
}

func sendResponse(resp response) {
	bytes, err := json.Marshal(resp)
	if err != nil {
		logger.Printf("Error marshaling response: %v", err)
		return
	}
	fmt.Printf("Content-Length: %d\r\n\r\n%s", len(bytes), string(bytes))
	logger.Printf("Sent: %s", string(bytes))
}

// completions returns the items for the cursor position of a draft.
func completions(tpl models.Template, params completionParams) []completionItem {
	lines := documentLines(params.TextDocument.URI)
	if params.Position.Line < 0 || params.Position.Line >= len(lines) {
		return nil
	}
	sec, ok := tpl.Section(sectionOf(params.TextDocument.URI, lines))
	if !ok {
		return nil
	}

	line := lines[params.Position.Line]
	if strings.HasPrefix(line, strings.TrimSpace(editor.FieldMarker)) {
		items := make([]completionItem, 0, len(sec.Fields))
		for _, f := range sec.Fields {
			if f.Kind == models.KindFile {
				continue
			}
			items = append(items, completionItem{Label: f.ID, Kind: kindField, Detail: f.Label})
		}
		return items
	}

	f, ok := sec.Field(enclosingField(lines, params.Position.Line))
	if !ok || !f.Kind.HasOptions() {
		return nil
	}
	items := make([]completionItem, 0, len(f.Options))
	for _, opt := range f.Options {
		items = append(items, completionItem{Label: opt, Kind: kindValue, Detail: f.Label})
	}
	return items
}

// documentLines reads the file behind a file:// uri.
func documentLines(uri string) []string {
	data, err := os.ReadFile(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		logger.Printf("Error reading file: %v", err)
		return nil
	}
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
}

// sectionOf finds the section from the draft header, falling back to a
// <section>.docgen.md file name.
func sectionOf(uri string, lines []string) string {
	const header = "# docgen section: "
	if len(lines) > 0 && strings.HasPrefix(lines[0], header) {
		id, _, _ := strings.Cut(strings.TrimPrefix(lines[0], header), " ")
		return id
	}
	base := filepath.Base(strings.TrimPrefix(uri, "file://"))
	if strings.HasSuffix(base, draftSuffix) {
		return strings.TrimSuffix(base, draftSuffix)
	}
	return ""
}

// enclosingField is the field whose block contains line.
func enclosingField(lines []string, line int) string {
	for i := line; i >= 0; i-- {
		if strings.HasPrefix(lines[i], editor.FieldMarker) {
			return strings.TrimSpace(strings.TrimPrefix(lines[i], editor.FieldMarker))
		}
	}
	return ""
}
