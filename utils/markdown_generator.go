package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// RenderAndPrintMarkdownWithContext renders a streamed answer chunk to the
// terminal, syntax-highlighting code through chroma, with cancellation support.
func RenderAndPrintMarkdownWithContext(ctx context.Context, content string, language string, theme string) error {
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		select {
		case <-ctx.Done():
			fmt.Println("\n\nOutput interrupted...")
			return ctx.Err()
		default:
		}

		var buf bytes.Buffer
		if err := quick.Highlight(&buf, line+"\n", language, "terminal256", theme); err != nil {
			return err
		}
		fmt.Print(buf.String())

		// Check for cancellation more often on long chunks.
		if i%5 == 0 {
			select {
			case <-ctx.Done():
				fmt.Println("\n\nOutput interrupted...")
				return ctx.Err()
			default:
			}
		}
	}

	return nil
}
