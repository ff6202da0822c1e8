package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"happy-place-engine/internal/game"
	"happy-place-engine/internal/geom"
)

// SSHServer accepts console sessions and feeds their commands to the loop.
type SSHServer struct {
	loop        *game.Loop
	addr        string
	hostKey     string
	idleTimeout time.Duration
	log         *zap.Logger
}

func NewSSHServer(addr, hostKey string, idleTimeout time.Duration, loop *game.Loop, log *zap.Logger) *SSHServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &SSHServer{
		loop:        loop,
		addr:        addr,
		hostKey:     hostKey,
		idleTimeout: idleTimeout,
		log:         log.Named("ssh"),
	}
}

// Start listens until ctx is done.
func (s *SSHServer) Start(ctx context.Context) error {
	server := &ssh.Server{
		Addr:        s.addr,
		IdleTimeout: s.idleTimeout,
		Handler:     s.handleSession,
	}
	if err := server.SetOption(ssh.HostKeyFile(s.hostKey)); err != nil {
		return fmt.Errorf("set host key: %w", err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *SSHServer) handleSession(sess ssh.Session) {
	name := sess.User()
	if name == "" {
		name = "Anonymous"
	}
	log := s.log.With(zap.String("session", uuid.NewString()), zap.String("user", name))

	player, err := s.loop.Join(name)
	if err != nil {
		fmt.Fprintln(sess, "Server is shutting down.")
		return
	}
	log.Info("connected", zap.String("player", player.ID))
	defer func() {
		s.loop.Leave(player.ID)
		log.Info("disconnected")
	}()

	if pty, winCh, ok := sess.Pty(); ok {
		s.loop.Resize(player.ID, windowSize(pty.Window))
		go func() {
			for win := range winCh {
				s.loop.Resize(player.ID, windowSize(win))
			}
		}()
	}

	io.WriteString(sess, "Welcome, "+player.ID+". Type help for commands.\r\n")
	out := &console{w: sess}

	quitCh := make(chan struct{})
	go func() {
		defer close(quitCh)
		sc := bufio.NewScanner(sess)
		for sc.Scan() {
			cmd, err := ParseCommand(sc.Text())
			if err != nil {
				out.message(err.Error())
				continue
			}
			switch cmd.Kind {
			case CmdNone:
			case CmdQuit:
				return
			case CmdHelp:
				out.message(helpText)
			case CmdLook:
				out.forceNext()
			case CmdMove, CmdAct:
				in := game.Input{PlayerID: player.ID, Object: cmd.Object, Move: cmd.Delta, Action: cmd.Action}
				if !s.loop.Send(in) {
					out.message("server busy, command dropped")
				}
			}
		}
	}()

	for {
		select {
		case <-quitCh:
			return
		case <-sess.Context().Done():
			return
		case f, ok := <-player.Frames:
			if !ok {
				return
			}
			if err := out.frame(f); err != nil {
				log.Debug("write failed", zap.Error(err))
				return
			}
		}
	}
}

func windowSize(w ssh.Window) geom.UPoint {
	// One row is kept free for the prompt line.
	return geom.UPt(uint32(max(w.Width, 1)), uint32(max(w.Height-1, 1)))
}

// console writes frames only when their content changes.
type console struct {
	mu    sync.Mutex
	w     io.Writer
	last  uint64
	force bool
}

func (c *console) frame(f game.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f.Fingerprint == c.last && !c.force {
		return nil
	}
	c.last, c.force = f.Fingerprint, false
	_, err := io.WriteString(c.w, strings.Join(f.Image.Lines(), "\r\n")+"\r\n\r\n")
	return err
}

func (c *console) forceNext() {
	c.mu.Lock()
	c.force = true
	c.mu.Unlock()
}

func (c *console) message(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.w, strings.ReplaceAll(msg, "\n", "\r\n")+"\r\n")
}
