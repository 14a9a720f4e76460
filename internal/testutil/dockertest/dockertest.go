// Package dockertest runs throwaway containers for integration tests.
package dockertest

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Container describes an image built from a Dockerfile at the repo root and
// published on a fixed host port.
type Container struct {
	Dockerfile    string
	Image         string
	Name          string
	HostPort      string
	ContainerPort string
	// Ready is polled until it returns nil or the timeout elapses.
	Ready   func() error
	Timeout time.Duration
}

// Start builds the image, replaces any stale container and waits for Ready.
func (c Container) Start() error {
	if _, err := exec.LookPath("docker"); err != nil {
		return fmt.Errorf("docker executable not found: %w", err)
	}
	_ = c.Stop()
	root := RepoRoot()
	if err := run("build", "-f", filepath.Join(root, c.Dockerfile), "-t", c.Image, root); err != nil {
		return err
	}
	if err := run("run", "-d", "--rm",
		"--name", c.Name,
		"-p", fmt.Sprintf("%s:%s", c.HostPort, c.ContainerPort),
		c.Image,
	); err != nil {
		return err
	}
	return c.wait()
}

// Stop stops the container; a container that is not running is not an error.
func (c Container) Stop() error {
	cmd := exec.Command("docker", "stop", c.Name)
	cmd.Dir = RepoRoot()
	output, err := cmd.CombinedOutput()
	if err != nil {
		if strings.Contains(string(output), "No such container") {
			return nil
		}
		return fmt.Errorf("docker stop failed: %w: %s", err, output)
	}
	return nil
}

func (c Container) wait() error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if c.Ready == nil {
		return nil
	}
	deadline := time.Now().Add(timeout)
	var last error
	for time.Now().Before(deadline) {
		if last = c.Ready(); last == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("%s did not become ready in %s: %w", c.Name, timeout, last)
}

func run(args ...string) error {
	cmd := exec.Command("docker", args...)
	cmd.Dir = RepoRoot()
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker %s failed: %w: %s", args[0], err, output)
	}
	return nil
}

// RepoRoot is the module root, where the test Dockerfiles live.
func RepoRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", ".."))
}
