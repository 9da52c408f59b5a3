package uds

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hftgate/pkg/exception"
)

func TestNewClientEmptyPath(t *testing.T) {
	if _, err := NewClient(""); err != exception.ErrEmptyPathUDS {
		t.Fatalf("expected ErrEmptyPathUDS, got %v", err)
	}
}

func TestNewServerEmptyPath(t *testing.T) {
	if _, err := NewServer(""); err != exception.ErrEmptyPathUDS {
		t.Fatalf("expected ErrEmptyPathUDS, got %v", err)
	}
}

func TestRemoveIfExistsRejectsNonSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-socket")
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := RemoveIfExists(path); err != ErrPathNotSocket {
		t.Fatalf("expected ErrPathNotSocket, got %v", err)
	}
}

func TestServerDialAcceptFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.sock")

	server, err := NewServer(path)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := server.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Close()

	if err := server.Listen(); err != ErrAlreadyListening {
		t.Fatalf("expected ErrAlreadyListening, got %v", err)
	}

	acceptCh := make(chan *net.UnixConn, 1)
	errCh := make(chan error, 1)
	go func() {
		conn, err := server.Accept(context.Background())
		if err != nil {
			errCh <- err
			return
		}
		acceptCh <- conn
	}()

	client, err := NewClient(path)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	conn, err := client.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	timer := time.NewTimer(2 * time.Second)
	defer timer.Stop()

	var serverConn *net.UnixConn
	select {
	case err := <-errCh:
		t.Fatalf("Accept: %v", err)
	case serverConn = <-acceptCh:
	case <-timer.C:
		t.Fatal("timeout waiting for accept")
	}
	defer serverConn.Close()

	frame := []byte{0xAA, 0x01, 0x00, 0x10, 0x27, 0x00}
	if _, err := serverConn.Write(frame); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, len(frame))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != string(frame) {
		t.Fatalf("frame mismatch: got %x want %x", buf, frame)
	}
}

func TestAcceptReturnsWhenContextDone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.sock")
	server, err := NewServer(path)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := server.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := server.Accept(ctx); !errors.Is(err, net.ErrClosed) {
		t.Fatalf("expected net.ErrClosed, got %v", err)
	}
}

func TestServerCloseRemovesSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.sock")
	server, err := NewServer(path)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := server.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected socket path removed, got %v", err)
	}
}
