package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	component := Component(logger, "ingest")
	component.Info().Msg("готово")

	if !strings.Contains(buf.String(), `"component":"ingest"`) {
		t.Fatalf("ожидали метку компонента в записи: %s", buf.String())
	}
}
