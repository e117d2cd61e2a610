package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/brandoo/console/internal/brandoo"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/stats"
	"github.com/brandoo/console/internal/testutil"
	"github.com/brandoo/console/internal/workspace"
)

func testServer(t *testing.T, signedIn bool) (*Server, *testutil.FakeBackend) {
	t.Helper()

	backend := testutil.NewFakeBackend(t)
	creds := brandoo.StaticCredentials{}
	if signedIn {
		creds = brandoo.StaticCredentials{Token: testutil.FakeToken, PrivateKey: testutil.FakePrivateKey, UserID: testutil.FakeUserID}
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client := brandoo.New(brandoo.Options{BaseURL: backend.URL(), Timeout: 5 * time.Second}, creds, logger)

	srv := New(client, workspace.New(client, logger), stats.NewService(client), logger)
	return srv, backend
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_forms":
		result, err = srv.listForms(ctx, req)
	case "get_form_schema":
		result, err = srv.getFormSchema(ctx, req)
	case "derive_field_key":
		result, err = srv.deriveFieldKey(ctx, req)
	case "list_contents":
		result, err = srv.listContents(ctx, req)
	case "get_content_tree":
		result, err = srv.getContentTree(ctx, req)
	case "statistic_summary":
		result, err = srv.statisticSummary(ctx, req)
	case "set_content_image":
		result, err = srv.setContentImage(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListForms(t *testing.T) {
	srv, backend := testServer(t, true)
	id := backend.SeedForm("Poptávka")

	r := callTool(t, srv, "list_forms", nil)
	if r.IsError {
		t.Fatalf("list_forms error: %s", resultText(r))
	}
	var forms []models.Form
	if err := json.Unmarshal([]byte(resultText(r)), &forms); err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 || forms[0].ID != id {
		t.Errorf("forms = %+v", forms)
	}
}

func TestListFormsSignedOut(t *testing.T) {
	srv, _ := testServer(t, false)
	r := callTool(t, srv, "list_forms", nil)
	if !r.IsError {
		t.Error("expected error without a session")
	}
}

func TestGetFormSchema(t *testing.T) {
	srv, backend := testServer(t, true)
	id := backend.SeedForm("Poptávka",
		models.FieldDefinition{Key: models.KeyEmail, Label: "E-mail", PropertyType: models.PropertyShortText, Position: 1},
	)

	r := callTool(t, srv, "get_form_schema", map[string]interface{}{"form_id": id})
	if r.IsError {
		t.Fatalf("get_form_schema error: %s", resultText(r))
	}
	var out struct {
		Form   models.FormWithProperties `json:"form"`
		Issues []struct {
			Key string `json:"key"`
		} `json:"issues"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Form.Properties) != 1 {
		t.Errorf("properties = %+v", out.Form.Properties)
	}
	if len(out.Issues) != 1 || out.Issues[0].Key != models.KeyAgreedToPrivacyPolicy {
		t.Errorf("issues = %+v", out.Issues)
	}
}

func TestGetFormSchemaMissing(t *testing.T) {
	srv, _ := testServer(t, true)
	r := callTool(t, srv, "get_form_schema", map[string]interface{}{"form_id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing form")
	}
}

func TestDeriveFieldKey(t *testing.T) {
	srv, _ := testServer(t, false)
	r := callTool(t, srv, "derive_field_key", map[string]interface{}{"label": "Jaké je Vaše příjmení?"})
	if got := resultText(r); got != "jakeJeVasePrijmeni" {
		t.Errorf("key = %q", got)
	}

	r = callTool(t, srv, "derive_field_key", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without a label")
	}
}

func TestContentTools(t *testing.T) {
	srv, backend := testServer(t, true)
	text := models.ContentText
	root := backend.SeedContent(models.ContentNode{IsRoot: true, Alias: "Úvod", ContentType: &text, Text: strPtr("Ahoj")})

	r := callTool(t, srv, "list_contents", nil)
	if !strings.Contains(resultText(r), root) {
		t.Errorf("list_contents = %s", resultText(r))
	}

	r = callTool(t, srv, "get_content_tree", map[string]interface{}{"content_id": root})
	if r.IsError {
		t.Fatalf("get_content_tree error: %s", resultText(r))
	}
	var tree models.ContentTree
	if err := json.Unmarshal([]byte(resultText(r)), &tree); err != nil {
		t.Fatal(err)
	}
	if tree.Node.Text == nil || *tree.Node.Text != "Ahoj" {
		t.Errorf("tree node = %+v", tree.Node)
	}
}

func TestStatisticSummary(t *testing.T) {
	srv, backend := testServer(t, true)
	id := backend.SeedStatistic(models.Statistic{Name: "Návštěvy", Type: models.StatisticBoolean, Values: []models.StatisticValue{
		{CreatedAt: time.Now().UTC().Format(time.RFC3339), Boolean: true},
	}})

	r := callTool(t, srv, "statistic_summary", map[string]interface{}{"statistic_id": id, "interval": "all"})
	if r.IsError {
		t.Fatalf("statistic_summary error: %s", resultText(r))
	}
	var sum stats.Summary
	if err := json.Unmarshal([]byte(resultText(r)), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Count != 1 || sum.True != 1 {
		t.Errorf("summary = %+v", sum)
	}

	r = callTool(t, srv, "statistic_summary", map[string]interface{}{"statistic_id": id, "interval": "forever"})
	if !r.IsError {
		t.Error("expected error for unknown interval")
	}
}

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSetContentImage(t *testing.T) {
	srv, backend := testServer(t, true)
	image := models.ContentImage
	id := backend.SeedContent(models.ContentNode{ContentType: &image})

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	r := callTool(t, srv, "set_content_image", map[string]interface{}{
		"content_id": id,
		"url":        uri,
		"filename":   "logo.png",
	})
	if r.IsError {
		t.Fatalf("set_content_image error: %s", resultText(r))
	}
	n, _ := backend.Node(id)
	if n.Image == nil || !strings.HasSuffix(*n.Image, "-logo.png") {
		t.Fatalf("node image = %v", n.Image)
	}
	if data, ok := backend.File(*n.Image); !ok || string(data) != string(pngHeader) {
		t.Errorf("stored file = %q, %v", data, ok)
	}
}

func TestSetContentImageRejectsMismatch(t *testing.T) {
	srv, backend := testServer(t, true)
	image := models.ContentImage
	id := backend.SeedContent(models.ContentNode{ContentType: &image})

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text"))
	r := callTool(t, srv, "set_content_image", map[string]interface{}{"content_id": id, "url": uri})
	if !r.IsError {
		t.Error("expected error for non-png content")
	}

	r = callTool(t, srv, "set_content_image", map[string]interface{}{"content_id": id, "url": "ftp://example.com/a.png"})
	if !r.IsError {
		t.Error("expected error for ftp scheme")
	}
	if n, _ := backend.Node(id); n.Image != nil {
		t.Errorf("image should stay unset, got %q", *n.Image)
	}
}

func TestDecodeDataURI(t *testing.T) {
	if _, _, err := decodeDataURI("data:image/png,abc"); err == nil {
		t.Error("non-base64 data URI should fail")
	}
	if _, _, err := decodeDataURI("data:text/plain;base64,YWJj"); err == nil {
		t.Error("text data URI should fail")
	}
	data, ext, err := decodeDataURI("data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader))
	if err != nil || ext != ".png" || string(data) != string(pngHeader) {
		t.Errorf("decodeDataURI = %q, %q, %v", data, ext, err)
	}
}

func TestImageName(t *testing.T) {
	tests := []struct {
		src, given, declared string
		want                 string
		wantErr              bool
	}{
		{src: "https://cdn.example.com/img/logo.webp?v=2", want: "logo.webp"},
		{src: "data:image/png;base64,AA==", given: "../../etc/pass wd.png", want: "pass_wd.png"},
		{src: "https://cdn.example.com/img/logo.pdf", wantErr: true},
		{src: "https://cdn.example.com/img/", wantErr: true},
		{src: "https://cdn.example.com/img/", given: "..", wantErr: true},
	}
	for _, tt := range tests {
		got, err := imageName(tt.src, tt.given, tt.declared)
		if tt.wantErr {
			if err == nil {
				t.Errorf("imageName(%q, %q) = %q, want error", tt.src, tt.given, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("imageName(%q, %q) = %q, %v; want %q", tt.src, tt.given, got, err, tt.want)
		}
	}

	got, err := imageName("https://cdn.example.com/img/", "", ".gif")
	if err != nil || !strings.HasSuffix(got, ".gif") {
		t.Errorf("generated name = %q, %v", got, err)
	}
}

func TestCheckImageContent(t *testing.T) {
	if err := checkImageContent(pngHeader, ".png"); err != nil {
		t.Errorf("png: %v", err)
	}
	if err := checkImageContent(pngHeader, ".jpg"); err == nil {
		t.Error("png bytes named .jpg should fail")
	}
	if err := checkImageContent([]byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`), ".svg"); err != nil {
		t.Errorf("svg: %v", err)
	}
	if err := checkImageContent([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), ".jpeg"); err != nil {
		t.Errorf("jpeg: %v", err)
	}
}

func TestCheckHostBlocksNonPublicAddresses(t *testing.T) {
	ctx := context.Background()
	blocked := []string{
		"127.0.0.1", "::1",
		"10.0.0.5", "172.16.0.1", "172.31.255.254", "192.168.1.1",
		"169.254.169.254", "fe80::1",
		"0.0.0.0", "::",
		"fc00::1", "100.64.0.1", "224.0.0.1",
	}
	for _, host := range blocked {
		if err := checkHost(ctx, host); !errors.Is(err, errBlockedAddress) {
			t.Errorf("checkHost(%q) = %v, want blocked", host, err)
		}
	}
	for _, host := range []string{"93.184.216.34", "2606:4700::6810:85e5", "172.32.0.1"} {
		if err := checkHost(ctx, host); err != nil {
			t.Errorf("checkHost(%q) = %v, want allowed", host, err)
		}
	}
	if err := checkHost(ctx, "localhost"); err == nil {
		t.Error("localhost should be blocked")
	}
}

func TestDialGuard(t *testing.T) {
	if err := dialGuard("tcp", "10.1.2.3:443", nil); !errors.Is(err, errBlockedAddress) {
		t.Errorf("private dial = %v", err)
	}
	if err := dialGuard("tcp6", "[::1]:80", nil); !errors.Is(err, errBlockedAddress) {
		t.Errorf("loopback dial = %v", err)
	}
	if err := dialGuard("tcp", "93.184.216.34:443", nil); err != nil {
		t.Errorf("public dial = %v", err)
	}
}

func TestFetchImageRefusesLocalServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	defer ts.Close()

	if _, _, err := fetchImage(context.Background(), ts.URL+"/logo.png"); !errors.Is(err, errBlockedAddress) {
		t.Errorf("fetchImage(%s) = %v, want blocked", ts.URL, err)
	}
}

func TestFieldTypesDocument(t *testing.T) {
	doc := FieldTypesDocument()
	for _, want := range []string{"`short_text`", "`list_item_content`", "`jakeJeVasePrijmeni`"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document lacks %s", want)
		}
	}

	srv, _ := testServer(t, false)
	contents, err := srv.readFieldTypesResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != FieldTypesURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}

func strPtr(s string) *string { return &s }
