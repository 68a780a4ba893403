package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ChatService turns an incoming line into the reply line.
type ChatService interface {
	Process(msg string) string
}

// EchoChatService echoes the message with a timestamp.
type EchoChatService struct {
	Clock Clock `inject:""`
}

func (s *EchoChatService) Process(msg string) string {
	return fmt.Sprintf("[echo] %s (processed at %s)", msg, s.Clock.Now().Format(time.RFC3339))
}

// EchoServer is a line-based TCP server. Each line read from a client is
// answered with Chat.Process(line).
type EchoServer struct {
	Chat ChatService `inject:""`
	Log  *zap.Logger `inject:""`

	mu       sync.Mutex
	listener net.Listener
	conns    sync.WaitGroup
}

// Listen binds addr. Use Addr to learn the port when addr ends in ":0".
func (s *EchoServer) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("echo: listen %s: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.Log.Info("echo server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *EchoServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts clients until ctx is done, then waits for open connections.
func (s *EchoServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("echo: Serve called before Listen")
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.conns.Wait()
				return nil
			}
			return fmt.Errorf("echo: accept: %w", err)
		}
		s.conns.Add(1)
		go s.handle(ctx, conn)
	}
}

func (s *EchoServer) handle(ctx context.Context, conn net.Conn) {
	defer s.conns.Done()
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	remote := zap.String("remote", conn.RemoteAddr().String())
	s.Log.Debug("client connected", remote)
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(conn, s.Chat.Process(scanner.Text())); err != nil {
			s.Log.Warn("write failed", remote, zap.Error(err))
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.Log.Warn("read failed", remote, zap.Error(err))
	}
}
