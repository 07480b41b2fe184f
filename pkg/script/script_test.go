package script

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkerrors "github.com/wehubfusion/cheesefinder/pkg/errors"
	"github.com/wehubfusion/cheesefinder/pkg/finder"
	"github.com/wehubfusion/cheesefinder/pkg/report"
)

func TestHandler_ReturnsScriptStatus(t *testing.T) {
	h, err := New(`function handle(item) { return item.length; }`, Config{})
	require.NoError(t, err)

	status, err := h.Handle(context.Background(), "brie")

	require.NoError(t, err)
	assert.Equal(t, 4, status)
}

func TestHandler_PassesUserDataUnchanged(t *testing.T) {
	h, err := New(`
		var seen = [];
		function handle(item, userData) {
			seen.push(userData.tag);
			return userData.base + seen.length;
		}
	`, Config{UserData: map[string]interface{}{"tag": "x", "base": 10}})
	require.NoError(t, err)

	for want := 11; want <= 13; want++ {
		status, err := h.Handle(context.Background(), "cheddar")
		require.NoError(t, err)
		assert.Equal(t, want, status)
	}
}

func TestHandler_CustomFunctionName(t *testing.T) {
	h, err := New(`function visit(item) { return item === "camembert" ? 1 : 0; }`, Config{Function: "visit"})
	require.NoError(t, err)

	status, err := h.Handle(context.Background(), "camembert")
	require.NoError(t, err)
	assert.Equal(t, 1, status)
}

func TestHandler_ThrowBecomesError(t *testing.T) {
	h, err := New(`function handle(item) { throw new Error("no " + item); }`, Config{})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), "gouda")

	require.Error(t, err)
	assert.ErrorIs(t, err, sdkerrors.ErrScriptFailed)
	assert.Contains(t, err.Error(), "no gouda")
}

func TestHandler_NonNumericResult(t *testing.T) {
	cases := map[string]string{
		"string":    `function handle() { return "zero"; }`,
		"undefined": `function handle() { }`,
		"fraction":  `function handle() { return 1.5; }`,
	}

	for name, source := range cases {
		t.Run(name, func(t *testing.T) {
			h, err := New(source, Config{})
			require.NoError(t, err)

			_, err = h.Handle(context.Background(), "feta")
			assert.ErrorIs(t, err, sdkerrors.ErrScriptFailed)
		})
	}
}

func TestHandler_IntegralFloatAccepted(t *testing.T) {
	h, err := New(`function handle() { return 6 / 2; }`, Config{})
	require.NoError(t, err)

	status, err := h.Handle(context.Background(), "feta")
	require.NoError(t, err)
	assert.Equal(t, 3, status)
}

func TestHandler_OutOfRangeStatus(t *testing.T) {
	for _, source := range []string{
		`function handle() { return 1e300; }`,
		`function handle() { return -1e300; }`,
		`function handle() { return Math.pow(2, 63); }`,
	} {
		h, err := New(source, Config{})
		require.NoError(t, err)

		_, err = h.Handle(context.Background(), "feta")
		assert.ErrorIs(t, err, sdkerrors.ErrScriptFailed)
		assert.Contains(t, err.Error(), "out of range")
	}
}

func TestHandler_NilReceiver(t *testing.T) {
	var h *Handler

	var err error
	require.NotPanics(t, func() {
		_, err = h.Handle(context.Background(), "cheddar")
	})
	assert.ErrorIs(t, err, sdkerrors.ErrInvalidHandler)
}

func TestHandler_TimeoutInterruptsScript(t *testing.T) {
	h, err := New(`function handle() { while (true) {} }`, Config{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), "stilton")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "script interrupted")
}

func TestHandler_UsableAfterInterrupt(t *testing.T) {
	h, err := New(`function handle(item) { if (item === "loop") { while (true) {} } return 0; }`,
		Config{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), "loop")
	require.Error(t, err)

	status, err := h.Handle(context.Background(), "cheddar")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
}

func TestNew_MissingFunction(t *testing.T) {
	_, err := New(`var handle = 3;`, Config{})

	assert.ErrorIs(t, err, sdkerrors.ErrScriptFailed)
	assert.Contains(t, err.Error(), `function "handle"`)
}

func TestNew_SyntaxError(t *testing.T) {
	_, err := New(`function handle( {`, Config{})

	assert.ErrorIs(t, err, sdkerrors.ErrScriptFailed)
}

func TestNew_InvalidSecurityLevel(t *testing.T) {
	_, err := New(`function handle() { return 0; }`, Config{SecurityLevel: "none"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid security level")
}

func TestSandbox_RemovesHostGlobals(t *testing.T) {
	h, err := New(`function handle() { return typeof require === "undefined" && typeof process === "undefined" ? 0 : 1; }`, Config{})
	require.NoError(t, err)

	status, err := h.Handle(context.Background(), "cheddar")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
}

func TestSandbox_StrictModeBlocksEval(t *testing.T) {
	h, err := New(`function handle() { return eval("1"); }`, Config{SecurityLevel: SecurityLevelStrict})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), "cheddar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eval is not allowed")
}

func TestSandbox_BuiltinsFrozenByLevel(t *testing.T) {
	source := `function handle() {
		Math.cheese = 1;
		String.prototype.shout = function() { return this.toUpperCase(); };
		return Object.isFrozen(Math) && Math.cheese === undefined && typeof "x".shout === "undefined" ? 1 : 0;
	}`

	cases := map[string]int{
		SecurityLevelStrict:     1,
		SecurityLevelStandard:   1,
		SecurityLevelPermissive: 0,
	}

	for level, want := range cases {
		t.Run(level, func(t *testing.T) {
			h, err := New(source, Config{SecurityLevel: level})
			require.NoError(t, err)

			status, err := h.Handle(context.Background(), "cheddar")
			require.NoError(t, err)
			assert.Equal(t, want, status)
		})
	}
}

func TestHandler_DrivesFinder(t *testing.T) {
	h, err := New(`
		function handle(item) {
			if (item === "that runny one") { throw new Error("escaped"); }
			return item === "camembert" ? 1 : 0;
		}
	`, Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = finder.New(finder.Config{Reporter: report.NewWriter(&buf)}).Find(context.Background(), h)

	assert.ErrorIs(t, err, sdkerrors.ErrScriptFailed)
	assert.Equal(t, "return = 0\nreturn = 1\n", buf.String())
}

func TestConsole_WritesLines(t *testing.T) {
	var out bytes.Buffer
	h, err := New(`function handle(item) { console.log("found", item); console.error("oops"); return 0; }`,
		Config{Console: &out})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), "brie")
	require.NoError(t, err)

	assert.Equal(t, "found brie\nerror: oops\n", out.String())
}

func TestConsole_UndefinedWithoutWriter(t *testing.T) {
	h, err := New(`function handle() { return typeof console === "undefined" ? 0 : 1; }`, Config{})
	require.NoError(t, err)

	status, err := h.Handle(context.Background(), "brie")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
}
