// Package gitsource implements the Git-backed source.Source: a single
// local clone kept up to date by fetch+checkout on every request, with
// the Spring file-lookup convention layered on top to turn a resolved
// working tree into a source.PropertySourceList.
//
// Git itself is driven as a subprocess (os/exec), never as a library —
// the checkout state the server depends on is the same state any
// operator inspecting the clone by hand would see, and it avoids binding
// the module to a pure-Go git implementation's quirks. Subprocess calls
// block the calling goroutine, but that goroutine is one of however many
// the Go runtime schedules onto OS threads; a blocking exec.Cmd.Run never
// pins a logical processor, so the HTTP layer above stays responsive
// without a bespoke worker pool.
package gitsource

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cburgosro9303/vortex-config/internal/codec"
	"github.com/cburgosro9303/vortex-config/internal/log"
	"github.com/cburgosro9303/vortex-config/internal/source"
)

// Config configures the Git-backed source.
type Config struct {
	// URI is the remote repository URL (https:// or git@ / ssh://).
	URI string

	// LocalPath is the working directory the clone is kept in. It is
	// created if missing.
	LocalPath string

	// DefaultLabel is the label used when a query leaves Label empty.
	DefaultLabel string

	// SearchPaths are repository-relative directories searched for
	// config files, tried in order. The repository root is searched only
	// when SearchPaths is empty.
	SearchPaths []string

	// Username and Password, if set, are injected into the clone/fetch
	// URL as HTTP basic auth credentials.
	Username string
	Password string

	// ForcePull, when set, resets an already-existing local checkout hard
	// to the remote's DefaultLabel on initialization, discarding any local
	// drift instead of trusting whatever state the working directory was
	// left in.
	ForcePull bool

	CloneTimeout time.Duration
	FetchTimeout time.Duration
}

func (c Config) cloneTimeout() time.Duration {
	if c.CloneTimeout > 0 {
		return c.CloneTimeout
	}

	return 120 * time.Second
}

func (c Config) fetchTimeout() time.Duration {
	if c.FetchTimeout > 0 {
		return c.FetchTimeout
	}

	return 30 * time.Second
}

// GitSource is a source.Source backed by one local clone. All methods
// are safe for concurrent use; Fetch serializes on the working tree
// since checkout mutates shared on-disk state.
type GitSource struct {
	cfg    Config
	logger log.Logger

	mu          sync.Mutex
	initialized bool
}

// New constructs a GitSource. The clone is not performed until the first
// Fetch call.
func New(cfg Config, logger log.Logger) *GitSource {
	if logger == nil {
		logger = log.Nop{}
	}

	return &GitSource{cfg: cfg, logger: logger}
}

func (g *GitSource) DefaultLabel() string { return g.cfg.DefaultLabel }

// Invalidate is a no-op at this layer: the Git source has no memoized
// state of its own to drop. Selective invalidation of resolved results
// is the caching decorator's responsibility.
func (g *GitSource) Invalidate(source.InvalidateSelector) {}

// Fetch resolves label to a commit, checks the working tree out to it,
// and assembles the PropertySourceList the Spring file-lookup convention
// matches for application/profiles.
func (g *GitSource) Fetch(ctx context.Context, query source.ConfigQuery) (source.ConfigResult, error) {
	if query.Application == "" {
		return source.ConfigResult{}, source.NewInvalidQueryError("application must not be empty")
	}

	label := query.Label
	if label == "" {
		label = g.cfg.DefaultLabel
	}

	decodedLabel, err := url.PathUnescape(label)
	if err != nil {
		return source.ConfigResult{}, source.NewInvalidQueryError("label is not valid percent-encoding: " + label)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ensureInitialized(ctx); err != nil {
		return source.ConfigResult{}, err
	}

	commit, err := g.checkout(ctx, decodedLabel)
	if err != nil {
		return source.ConfigResult{}, err
	}

	sources, err := g.resolveFiles(query.Application, query.Profiles, decodedLabel)
	if err != nil {
		return source.ConfigResult{}, err
	}

	return source.ConfigResult{
		Name:            query.Application,
		Profiles:        query.Profiles,
		Label:           label,
		Version:         commit,
		PropertySources: sources,
	}, nil
}

func (g *GitSource) ensureInitialized(ctx context.Context) error {
	if g.initialized {
		return nil
	}

	gitDir := filepath.Join(g.cfg.LocalPath, ".git")
	if _, err := os.Stat(gitDir); err == nil {
		if g.cfg.ForcePull {
			if err := g.resetHardToDefault(ctx); err != nil {
				return err
			}
		}

		g.initialized = true

		return nil
	}

	if err := os.MkdirAll(g.cfg.LocalPath, 0o755); err != nil {
		return source.NewSourceError("mkdir", "", err)
	}

	cctx, cancel := context.WithTimeout(ctx, g.cfg.cloneTimeout())
	defer cancel()

	if _, _, err := g.run(cctx, "", "clone", "--origin", "origin", g.authenticatedURI(), g.cfg.LocalPath); err != nil {
		return err
	}

	g.initialized = true

	return nil
}

// resetHardToDefault fetches the remote and resets the existing working
// tree hard to origin/DefaultLabel, per the force_pull initialization
// option: an existing checkout is never trusted as-is, it is made to match
// the remote exactly before the source starts serving requests.
func (g *GitSource) resetHardToDefault(ctx context.Context) error {
	fctx, cancel := context.WithTimeout(ctx, g.cfg.fetchTimeout())
	defer cancel()

	if _, _, err := g.run(fctx, g.cfg.LocalPath, "fetch", "--all", "--tags", "--prune"); err != nil {
		return err
	}

	if _, _, err := g.run(ctx, g.cfg.LocalPath, "reset", "--hard", "origin/"+g.cfg.DefaultLabel); err != nil {
		return err
	}

	return nil
}

// authenticatedURI returns cfg.URI with Username/Password embedded as
// userinfo when both are set, leaving non-HTTP(S) remotes (git@, ssh://)
// untouched.
func (g *GitSource) authenticatedURI() string {
	if g.cfg.Username == "" || g.cfg.Password == "" {
		return g.cfg.URI
	}

	u, err := url.Parse(g.cfg.URI)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return g.cfg.URI
	}

	u.User = url.UserPassword(g.cfg.Username, g.cfg.Password)

	return u.String()
}

// checkout brings the working tree to label, trying in order: local
// branch, tag, remote-tracking branch, raw commit id. It returns the
// resolved commit hash.
func (g *GitSource) checkout(ctx context.Context, label string) (string, error) {
	fctx, cancel := context.WithTimeout(ctx, g.cfg.fetchTimeout())
	defer cancel()

	if _, _, err := g.run(fctx, g.cfg.LocalPath, "fetch", "--all", "--tags", "--prune"); err != nil {
		return "", err
	}

	candidates := []struct {
		ref      string
		checkout []string
	}{
		{"refs/heads/" + label, []string{"checkout", label}},
		{"refs/tags/" + label, []string{"checkout", "tags/" + label}},
		{"refs/remotes/origin/" + label, []string{"checkout", "-B", label, "origin/" + label}},
		{label, []string{"checkout", label}},
	}

	for _, c := range candidates {
		if _, _, err := g.run(ctx, g.cfg.LocalPath, "rev-parse", "--verify", "--quiet", c.ref+"^{commit}"); err != nil {
			continue
		}

		if _, _, err := g.run(ctx, g.cfg.LocalPath, c.checkout...); err != nil {
			return "", err
		}

		// A local branch that also exists on the remote is moved to the
		// commit just fetched, so the working tree follows the remote.
		if c.ref == "refs/heads/"+label {
			remote := "refs/remotes/origin/" + label
			if _, _, err := g.run(ctx, g.cfg.LocalPath, "rev-parse", "--verify", "--quiet", remote+"^{commit}"); err == nil {
				if _, _, err := g.run(ctx, g.cfg.LocalPath, "reset", "--hard", remote); err != nil {
					return "", err
				}
			}
		}

		out, _, err := g.run(ctx, g.cfg.LocalPath, "rev-parse", "HEAD")
		if err != nil {
			return "", err
		}

		return strings.TrimSpace(out), nil
	}

	return "", source.NewLabelNotFoundError(label)
}

func (g *GitSource) resolveFiles(application string, profiles []string, label string) (source.PropertySourceList, error) {
	var list source.PropertySourceList

	seen := make(map[string]bool)

	for _, base := range candidateBases(g.cfg.SearchPaths, application, profiles) {
		for _, ext := range codec.Extensions {
			rel := base + "." + ext
			if seen[rel] {
				continue
			}

			full := filepath.Join(g.cfg.LocalPath, filepath.FromSlash(rel))

			data, err := os.ReadFile(full)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}

				return nil, source.NewSourceError("read "+rel, "", err)
			}

			seen[rel] = true

			format, _ := codec.ForExtension(ext)

			v, err := codec.For(format).Parse(data)
			if err != nil {
				return nil, source.NewParseError(rel, err)
			}

			obj, ok := v.AsObject()
			if !ok {
				return nil, source.NewParseError(rel, fmt.Errorf("document root is not an object"))
			}

			list = append(list, source.PropertySource{
				Name:       fmt.Sprintf("git:%s:%s", label, rel),
				Properties: obj,
			})

			break
		}
	}

	return list, nil
}

// run executes git with args, rooted at dir (ignored when empty, for the
// initial clone), and returns stdout/stderr. Non-zero exit is reported as
// a source.SourceError carrying stderr for diagnostics.
func (g *GitSource) run(ctx context.Context, dir string, args ...string) (stdout, stderr string, err error) {
	full := append([]string{}, args...)
	if dir != "" {
		full = append([]string{"-C", dir}, full...)
	}

	cmd := exec.CommandContext(ctx, "git", full...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	g.logger.Debugf("git %s", strings.Join(full, " "))

	if err := cmd.Run(); err != nil {
		return outBuf.String(), errBuf.String(), source.NewSourceError("git "+strings.Join(args, " "), errBuf.String(), err)
	}

	return outBuf.String(), errBuf.String(), nil
}

var _ source.Source = (*GitSource)(nil)
