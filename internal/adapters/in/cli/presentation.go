package cli

import (
	"fmt"
	"io"

	"github.com/bnema/dockyard/internal/adapters/in/cli/ui/styles"
)

var cliWriteLine = func(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

func cliRenderTitle(msg string) string {
	return styles.Theme.Title.Render(msg)
}

func cliRenderEmptyState(msg string) string {
	return styles.Theme.Muted.Render(msg)
}

func cliRenderMeta(label, value string) string {
	return styles.RenderMeta(label, value)
}

func cliRenderCreated(what string, created bool) string {
	return styles.RenderCreated(what, created)
}

func cliRenderSuccess(msg string) string {
	return styles.RenderSuccess(msg)
}

func cliRenderListItem(msg string) string {
	return styles.RenderListItem(msg)
}
