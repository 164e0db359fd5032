package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/safex/internal/pkg/router.middlewareRecoverer.func1.1()
	/src/safex/internal/pkg/router/middleware_recover.go:24 +0x65
panic({0x10a2b40?, 0x1290e30?})
	/usr/local/go/src/runtime/panic.go:785 +0x132
github.com/shandysiswandi/safex/internal/mfa/inbound.(*HTTPEndpoint).SendOTP(...)
	/src/safex/internal/mfa/inbound/http_endpoint.go:51
`)

	assert.Equal(t, []string{
		"internal/pkg/router/middleware_recover.go:24",
		"internal/mfa/inbound/http_endpoint.go:51",
	}, InternalPaths(stack))
	assert.Empty(t, InternalPaths([]byte("goroutine 1 [running]:\nmain.main()\n\t/src/main.go:5\n")))
}
