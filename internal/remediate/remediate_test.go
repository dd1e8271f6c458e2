package remediate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnv = "REMEDIATE_TEST_HELPER"

// TestMain lets the test binary stand in for the wrapped tool. When the
// helper variable is set it acts on its arguments and exits.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		os.Exit(helperMain(os.Args[1:]))
	}
	os.Exit(m.Run())
}

func helperMain(args []string) int {
	if len(args) == 0 {
		return 0
	}
	switch args[0] {
	case "env":
		env := os.Environ()
		sort.Strings(env)
		fmt.Println(strings.Join(env, "\n"))
	case "exit":
		code, _ := strconv.Atoi(args[1])
		fmt.Println("exiting with", code)
		return code
	case "sleep":
		d, _ := time.ParseDuration(args[1])
		time.Sleep(d)
	case "echo":
		fmt.Println(strings.Join(args[1:], " "))
	case "span":
		appendLine(args[1], "start")
		time.Sleep(30 * time.Millisecond)
		appendLine(args[1], "end")
	}
	return 0
}

func appendLine(path, line string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line + "\n")
}

func helperInvoker() (*Invoker, *bytes.Buffer) {
	var out bytes.Buffer
	inv := New(os.Args[0], "")
	inv.Stdout = &out
	return inv, &out
}

func helperEnvMap(extra map[string]string) map[string]string {
	env := map[string]string{helperEnv: "1"}
	for k, v := range extra {
		env[k] = v
	}
	return env
}

func TestInvokePassesEnvironmentExactly(t *testing.T) {
	inv, _ := helperInvoker()
	t.Setenv("REMEDIATE_SHOULD_NOT_LEAK", "1")

	res, err := inv.Invoke(context.Background(), []string{"env"},
		helperEnvMap(map[string]string{"TF_VAR_region": "us-east-1"}))
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)

	lines := strings.Split(strings.TrimSpace(res.Output), "\n")
	assert.ElementsMatch(t, []string{helperEnv + "=1", "TF_VAR_region=us-east-1"}, lines)
}

func TestInvokeNonZeroExit(t *testing.T) {
	inv, out := helperInvoker()

	res, err := inv.Invoke(context.Background(), []string{"exit", "3"}, helperEnvMap(nil))
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Output, "exiting with 3")
	assert.Contains(t, out.String(), "exiting with 3", "output is streamed as well as captured")
}

func TestInvokeMissingTool(t *testing.T) {
	inv := New("/nonexistent/terraform", "")
	inv.Stdout = &bytes.Buffer{}

	_, err := inv.Invoke(context.Background(), []string{"version"}, nil)
	require.Error(t, err)
}

func TestInvokeNoTool(t *testing.T) {
	_, err := New("", "").Invoke(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestInvokeCancellation(t *testing.T) {
	inv, _ := helperInvoker()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := inv.Invoke(ctx, []string{"sleep", "10s"}, helperEnvMap(nil))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestInvokeSerializesRuns(t *testing.T) {
	inv, _ := helperInvoker()
	log := filepath.Join(t.TempDir(), "spans.log")

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inv.Invoke(context.Background(), []string{"span", log}, helperEnvMap(nil))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Equal(t, "start\nend\nstart\nend\nstart\nend\n", string(data),
		"runs must not overlap")
}

func TestEnvListSortedAndEmpty(t *testing.T) {
	assert.Equal(t, []string{"A=1", "B=2"}, EnvList(map[string]string{"B": "2", "A": "1"}))

	empty := EnvList(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestEnvMap(t *testing.T) {
	env := EnvMap([]string{"A=1", "B=x=y", "EMPTY=", "junk"})
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y", "EMPTY": ""}, env)
}
