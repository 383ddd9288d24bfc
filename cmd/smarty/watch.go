package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/basalt-tpl/smarty/cmd/smarty/internal/config"
	"github.com/basalt-tpl/smarty/cmd/smarty/internal/dataload"
	"github.com/basalt-tpl/smarty/internal/smcache"
	"github.com/basalt-tpl/smarty/internal/template"
	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var port int
	var dataPath string

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-render a template on file change, live in the browser",
		Long:  `Watches a directory of templates and data files, re-rendering every .tpl file under it on every change and pushing the refreshed HTML to connected browsers over WebSocket.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], port, dataPath)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run the watch server on (default from smarty.yaml)")
	cmd.Flags().StringVar(&dataPath, "data", "", "Path to a YAML or JSON data file")

	return cmd
}

type watchServer struct {
	dir       string
	dataPath  string
	watcher   *fsnotify.Watcher
	cache     *smcache.Cache
	upgrader  websocket.Upgrader
	wsMutex   sync.RWMutex
	wsClients map[*websocket.Conn]bool
	lastHTML  string
	lastErr   error
	mu        sync.RWMutex
}

func runWatch(dir string, port int, dataPath string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading smarty.yaml: %w", err)
	}
	if port == 0 {
		port = cfg.Watch.Port
	}

	cache, err := smcache.New(smcache.Config{Dir: cfg.Cache.Dir, MaxSize: cfg.Cache.MaxSize})
	if err != nil {
		log.Printf("⚠️  Failed to initialize artifact cache: %v (continuing without it)", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	s := &watchServer{
		dir:       dir,
		dataPath:  dataPath,
		watcher:   watcher,
		cache:     cache,
		wsClients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	if err := s.addWatches(); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	s.renderAll()

	go s.watchLoop()

	mux := http.NewServeMux()
	mux.HandleFunc("/smarty/live", s.handleWebSocket)
	mux.HandleFunc("/", s.serveHTML)

	addr := fmt.Sprintf("%s:%d", cfg.Watch.Host, port)
	log.Printf("✨ smarty watch running at http://%s\n", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *watchServer) addWatches() error {
	return filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return s.watcher.Add(path)
		}
		return nil
	})
}

func (s *watchServer) watchLoop() {
	debounce := time.NewTimer(0)
	<-debounce.C
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !s.isRelevant(event.Name) {
				continue
			}
			if s.cache != nil && strings.HasSuffix(event.Name, ".tpl") {
				if n := s.cache.InvalidateByDependency(event.Name); n > 0 {
					log.Printf("cache: invalidated %d artifact(s) depending on %s", n, event.Name)
				}
			}
			debounce.Reset(100 * time.Millisecond)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Println("watcher error:", err)
		case <-debounce.C:
			s.renderAll()
			s.notifyClients()
		}
	}
}

func (s *watchServer) isRelevant(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".tpl" || ext == ".yaml" || ext == ".yml" || ext == ".json"
}

// renderAll re-renders every .tpl file under s.dir and concatenates
// the results; a single page is enough for the purposes of the watch
// preview, which shows the whole template tree's current output.
func (s *watchServer) renderAll() {
	d, err := dataload.FromFile(s.dataPath)
	if err != nil {
		s.setResult("", err)
		return
	}

	var out strings.Builder
	walkErr := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, ".tpl") {
			return err
		}
		source, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tpl, err := template.Parse(path, string(source))
		if err != nil {
			return err
		}
		if s.cache != nil {
			key := tpl.ArtifactKey("interp")
			if _, hit := s.cache.Get(key); !hit {
				s.cache.PutWithDeps(key, source, []string{path})
			}
		}
		rendered, err := tpl.Process(d, "html")
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(&out, "<section data-template=%q>\n%s\n</section>\n", path, rendered)
		return nil
	})
	s.setResult(out.String(), walkErr)
}

func (s *watchServer) setResult(html string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHTML = html
	s.lastErr = err
}

func (s *watchServer) result() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastHTML, s.lastErr
}

func (s *watchServer) serveHTML(w http.ResponseWriter, r *http.Request) {
	html, err := s.result()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		fmt.Fprintf(w, "<pre>render error: %s</pre>", err)
		return
	}
	fmt.Fprint(w, html)
}

func (s *watchServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("websocket upgrade error:", err)
		return
	}
	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *watchServer) notifyClients() {
	html, err := s.result()
	msg := map[string]interface{}{"type": "reload", "html": html}
	if err != nil {
		msg = map[string]interface{}{"type": "error", "message": err.Error()}
	}

	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()
	for client := range s.wsClients {
		if err := client.WriteJSON(msg); err != nil {
			log.Printf("failed to notify client: %v", err)
		}
	}
}
