package cmds

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/pdfchat/pkg/api"
	"github.com/go-go-golems/pdfchat/pkg/config"
	"github.com/go-go-golems/pdfchat/pkg/logging"
)

type fakeServer struct {
	*httptest.Server

	status    string
	filename  string
	uploaded  []string
	deletes   int
	questions []string
	fail      int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{status: "none"}
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if fs.fail != 0 {
			w.WriteHeader(fs.fail)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
			return
		}
		f, h, err := r.FormFile("pdf")
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, f)
		fs.uploaded = append(fs.uploaded, h.Filename)
		fs.status, fs.filename = "uploaded", h.Filename
		_, _ = w.Write([]byte(`{"status":"ok","message":"File uploaded successfully"}`))
	})
	mux.HandleFunc("/delete-pdf", func(w http.ResponseWriter, r *http.Request) {
		fs.deletes++
		fs.status, fs.filename = "none", ""
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fs.questions = append(fs.questions, req.Question)
		_, _ = w.Write([]byte(`{"answer":"The answer is 42."}`))
	})
	mux.HandleFunc("/pdf-status", func(w http.ResponseWriter, r *http.Request) {
		if fs.fail != 0 {
			w.WriteHeader(fs.fail)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": fs.status, "filename": fs.filename})
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	prev := homedir.DisableCache
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = prev })
	return home
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	// clay configures the global viper
	viper.Reset()
	t.Cleanup(viper.Reset)
	root, err := NewRootCommand()
	require.NoError(t, err)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err = root.Execute()
	return out.String(), err
}

// executeStdout runs execute and also collects what was written to
// os.Stdout, where the glazed formatters print.
func executeStdout(t *testing.T, args ...string) (string, error) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	prev := os.Stdout
	os.Stdout = f
	out, runErr := execute(t, "", args...)
	os.Stdout = prev
	require.NoError(t, f.Close())

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return out + string(data), runErr
}

func statusRows(t *testing.T, serverURL string) []map[string]interface{} {
	t.Helper()
	out, err := executeStdout(t, "--server-url", serverURL, "status", "--output", "json")
	require.NoError(t, err)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows), out)
	return rows
}

func TestStatus_JSON(t *testing.T) {
	isolateHome(t)
	srv := newFakeServer(t)

	rows := statusRows(t, srv.URL)
	require.Len(t, rows, 1)
	require.Equal(t, "none", rows[0]["status"])
	require.Equal(t, "", rows[0]["filename"])
	require.Equal(t, false, rows[0]["uploaded"])

	srv.status, srv.filename = "uploaded", "report.pdf"
	rows = statusRows(t, srv.URL)
	require.Len(t, rows, 1)
	require.Equal(t, "uploaded", rows[0]["status"])
	require.Equal(t, "report.pdf", rows[0]["filename"])
	require.Equal(t, true, rows[0]["uploaded"])
}

func TestStatus_YAML(t *testing.T) {
	isolateHome(t)
	srv := newFakeServer(t)
	srv.status, srv.filename = "uploaded", "report.pdf"

	out, err := executeStdout(t, "--server-url", srv.URL, "status", "--output", "yaml")
	require.NoError(t, err)
	require.Contains(t, out, "filename: report.pdf")
	require.Contains(t, out, "uploaded: true")
}

func TestStatusRow(t *testing.T) {
	srv := newFakeServer(t)
	client, err := api.NewClient(api.WithBaseURL(srv.URL))
	require.NoError(t, err)

	// a stale filename is not reported while nothing is uploaded
	srv.filename = "old.pdf"
	row, err := statusRow(context.Background(), client)
	require.NoError(t, err)
	filename, ok := row.Get("filename")
	require.True(t, ok)
	require.Equal(t, "", filename)

	srv.fail = http.StatusInternalServerError
	_, err = statusRow(context.Background(), client)
	require.EqualError(t, err, "❌ Error checking PDF status: Server responded with status: 500")
}

func TestUpload(t *testing.T) {
	isolateHome(t)
	srv := newFakeServer(t)
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	out, err := execute(t, "", "--server-url", srv.URL, "upload", path)
	require.NoError(t, err)
	require.Equal(t, "✅ File uploaded successfully\n", out)
	require.Equal(t, []string{"paper.pdf"}, srv.uploaded)
}

func TestUpload_ExpandsHome(t *testing.T) {
	home := isolateHome(t)
	srv := newFakeServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "notes.pdf"), []byte("%PDF-1.4"), 0o644))

	_, err := execute(t, "", "--server-url", srv.URL, "upload", "~/notes.pdf")
	require.NoError(t, err)
	require.Equal(t, []string{"notes.pdf"}, srv.uploaded)
}

func TestUpload_Errors(t *testing.T) {
	isolateHome(t)
	srv := newFakeServer(t)

	_, err := execute(t, "", "--server-url", srv.URL, "upload", filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "❌ Error: "), err.Error())
	require.Empty(t, srv.uploaded)

	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	srv.fail = http.StatusBadRequest
	_, err = execute(t, "", "--server-url", srv.URL, "upload", path)
	require.EqualError(t, err, "❌ Error: Server responded with status: 400")

	_, err = execute(t, "", "--server-url", srv.URL, "upload")
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	isolateHome(t)
	srv := newFakeServer(t)

	out, err := execute(t, "", "--server-url", srv.URL, "delete", "--yes")
	require.NoError(t, err)
	require.Equal(t, "✅ PDF deleted successfully!\n", out)
	require.Equal(t, 1, srv.deletes)
}

func TestDelete_Confirmation(t *testing.T) {
	isolateHome(t)
	srv := newFakeServer(t)

	prev := confirmDelete
	t.Cleanup(func() { confirmDelete = prev })

	asked := 0
	confirmDelete = func() (bool, error) {
		asked++
		return false, nil
	}
	out, err := execute(t, "", "--server-url", srv.URL, "delete")
	require.NoError(t, err)
	require.Equal(t, "Nothing deleted.\n", out)
	require.Equal(t, 1, asked)
	require.Equal(t, 0, srv.deletes)

	confirmDelete = func() (bool, error) {
		asked++
		return true, nil
	}
	_, err = execute(t, "", "--server-url", srv.URL, "delete")
	require.NoError(t, err)
	require.Equal(t, 2, asked)
	require.Equal(t, 1, srv.deletes)
}

func TestAsk(t *testing.T) {
	isolateHome(t)
	srv := newFakeServer(t)

	out, err := execute(t, "", "--server-url", srv.URL, "ask", "What", "is", "it?")
	require.NoError(t, err)
	require.Equal(t, "The answer is 42.\n", out)
	require.Equal(t, []string{"What is it?"}, srv.questions)
}

func TestAsk_FromStdin(t *testing.T) {
	isolateHome(t)
	srv := newFakeServer(t)

	_, err := execute(t, "  summarize the paper\n", "--server-url", srv.URL, "ask")
	require.NoError(t, err)
	require.Equal(t, []string{"summarize the paper"}, srv.questions)

	_, err = execute(t, "   \n", "--server-url", srv.URL, "ask")
	require.EqualError(t, err, "no question given")
	require.Len(t, srv.questions, 1)
}

func TestConfigShow_UsesConfigFile(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".pdfchat")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("server-url: http://pdf.example:8080\nbanner-delay: 5s\n"), 0o644))

	out, err := execute(t, "", "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "server-url: http://pdf.example:8080")
	require.Contains(t, out, "banner-delay: 5s")

	out, err = execute(t, "", "config", "path")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "config.yaml")+"\n", out)
}

func TestConfigPath_NoFile(t *testing.T) {
	home := isolateHome(t)
	out, err := execute(t, "", "config", "path")
	require.NoError(t, err)
	require.Equal(t, "no config file loaded; default location: "+
		filepath.Join(home, ".pdfchat", "config.yaml")+"\n", out)
}

func TestInvalidServerURL(t *testing.T) {
	isolateHome(t)
	_, err := execute(t, "", "--server-url", "ftp://nowhere", "status")
	require.Error(t, err)
}

func TestConfigEdit_WritesDefaultConfigFile(t *testing.T) {
	home := isolateHome(t)
	prev := editConfig
	t.Cleanup(func() { editConfig = prev })

	editConfig = func(c *config.Config) (bool, error) {
		c.ServerURL = "http://pdf.example:9000"
		c.MarkdownStyle = "light"
		return true, nil
	}
	out, err := execute(t, "", "config", "edit")
	require.NoError(t, err)
	path := filepath.Join(home, ".pdfchat", "config.yaml")
	require.Equal(t, "Saved "+path+"\n", out)

	out, err = execute(t, "", "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "server-url: http://pdf.example:9000")
	require.Contains(t, out, "markdown-style: light")
}

func TestConfigEdit_Declined(t *testing.T) {
	isolateHome(t)
	prev := editConfig
	t.Cleanup(func() { editConfig = prev })

	editConfig = func(c *config.Config) (bool, error) {
		c.ServerURL = "http://changed:1"
		return false, nil
	}
	out, err := execute(t, "", "config", "edit")
	require.NoError(t, err)
	require.Equal(t, "Configuration unchanged.\n", out)

	out, err = execute(t, "", "config", "path")
	require.NoError(t, err)
	require.Contains(t, out, "no config file loaded")
}

func TestConfigEdit_SeedsFromFileOnly(t *testing.T) {
	home := isolateHome(t)
	t.Setenv("PDFCHAT_SERVER_URL", "http://env:2")
	path := filepath.Join(home, ".pdfchat", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("banner-delay: 5s\nlog-level: debug\n"), 0o600))

	prev := editConfig
	t.Cleanup(func() { editConfig = prev })
	var seeded config.Config
	editConfig = func(c *config.Config) (bool, error) {
		seeded = *c
		c.MarkdownStyle = "light"
		return true, nil
	}
	_, err := execute(t, "", "--dedupe=false", "config", "edit")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:5000", seeded.ServerURL)
	require.Equal(t, 5*time.Second, seeded.BannerDelay)
	require.True(t, seeded.Dedupe)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "http://env:2")
	require.Contains(t, string(data), "dedupe: true")
	require.Contains(t, string(data), "markdown-style: light")
	require.Contains(t, string(data), "log-level: debug")
}

func TestConfigEdit_RepairsInvalidFile(t *testing.T) {
	home := isolateHome(t)
	srv := newFakeServer(t)
	path := filepath.Join(home, ".pdfchat", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path,
		[]byte("server-url: "+srv.URL+"\nbanner-delay: -1s\n"), 0o600))

	_, err := execute(t, "", "ask", "hello")
	require.ErrorContains(t, err, "banner-delay must be positive")

	out, err := execute(t, "", "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "banner-delay: -1s")

	prev := editConfig
	t.Cleanup(func() { editConfig = prev })
	editConfig = func(c *config.Config) (bool, error) {
		require.Equal(t, -time.Second, c.BannerDelay)
		c.BannerDelay = 2 * time.Second
		return true, nil
	}
	_, err = execute(t, "", "config", "edit")
	require.NoError(t, err)

	_, err = execute(t, "", "ask", "hello")
	require.NoError(t, err)
	require.Equal(t, []string{"hello"}, srv.questions)
}

func TestOneShotCommandsLogToStderr(t *testing.T) {
	isolateHome(t)
	srv := newFakeServer(t)

	_, err := execute(t, "", "--server-url", srv.URL, "ask", "hi")
	require.NoError(t, err)
	require.Empty(t, viper.GetString(logging.KeyLogFile))
}
