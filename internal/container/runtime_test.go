// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runOutputFunc func(name string, args []string, output io.Writer) error
	lastRunArgs   []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunOutput(name string, args []string, output io.Writer) error {
	m.lastRunArgs = append([]string{name}, args...)
	if m.runOutputFunc != nil {
		return m.runOutputFunc(name, args, output)
	}
	return nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "neither available",
			exec: &mockExecutor{
				availableBins: map[string]bool{},
				runnableCmds:  map[string]bool{},
			},
			wantErr: true,
		},
		{
			name: "docker on PATH but info fails, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "both available, docker preferred",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true},
			},
			wantName: "docker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(tt.exec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no container runtime available") {
					t.Errorf("error should mention no runtime available, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		mkRT    func(*mockExecutor) Runtime
		image   string
		cmds    map[string]bool
		wantErr bool
	}{
		{
			name:  "docker image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image: "bwits/pdf2htmlex:latest",
			cmds:  map[string]bool{"docker image inspect bwits/pdf2htmlex:latest": true},
		},
		{
			name:    "docker image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image:   "bwits/pdf2htmlex:latest",
			cmds:    map[string]bool{},
			wantErr: true,
		},
		{
			name:  "podman image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image: "bwits/pdf2htmlex:latest",
			cmds:  map[string]bool{"podman image exists bwits/pdf2htmlex:latest": true},
		},
		{
			name:    "podman image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image:   "bwits/pdf2htmlex:latest",
			cmds:    map[string]bool{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{runnableCmds: tt.cmds}
			rt := tt.mkRT(exec)
			err := rt.ImageExists(tt.image)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.image) {
					t.Errorf("error should mention image name, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunMounted(t *testing.T) {
	exec := &mockExecutor{
		runOutputFunc: func(name string, args []string, output io.Writer) error {
			io.WriteString(output, "Preprocessing: 1/1 pages")
			return nil
		},
	}
	rt := newDockerRuntime(exec)

	var out bytes.Buffer
	err := rt.RunMounted(
		"bwits/pdf2htmlex:latest",
		[]string{"/data/pdf", "/data/html"},
		[]string{"pdf2htmlEX", "--zoom", "1.5", "/data/pdf/x.pdf", "--dest-dir", "/data/html"},
		&out,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"docker", "run", "--rm",
		"-v", "/data/pdf:/data/pdf",
		"-v", "/data/html:/data/html",
		"bwits/pdf2htmlex:latest",
		"pdf2htmlEX", "--zoom", "1.5", "/data/pdf/x.pdf", "--dest-dir", "/data/html",
	}
	if got := strings.Join(exec.lastRunArgs, " "); got != strings.Join(want, " ") {
		t.Errorf("got command %q, want %q", got, strings.Join(want, " "))
	}
	if !strings.Contains(out.String(), "Preprocessing") {
		t.Errorf("container output not forwarded, got %q", out.String())
	}
}

func TestRunMountedFailure(t *testing.T) {
	exec := &mockExecutor{
		runOutputFunc: func(string, []string, io.Writer) error {
			return errors.New("container exited with code 1")
		},
	}
	rt := newPodmanRuntime(exec)

	err := rt.RunMounted("bwits/pdf2htmlex:latest", nil, nil, io.Discard)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "podman") {
		t.Errorf("error should mention runtime, got: %v", err)
	}
}

func TestRuntimeName(t *testing.T) {
	exec := &mockExecutor{}
	docker := newDockerRuntime(exec)
	if docker.Name() != "docker" {
		t.Errorf("docker runtime name = %q, want %q", docker.Name(), "docker")
	}
	podman := newPodmanRuntime(exec)
	if podman.Name() != "podman" {
		t.Errorf("podman runtime name = %q, want %q", podman.Name(), "podman")
	}
}
