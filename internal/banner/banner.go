package banner

import (
	"github.com/charmbracelet/lipgloss"

	"steadyudp/internal/tui/styles"
)

const ascii = `
   _____ __                 __      __  ______  ____
  / ___// /____  ____ _____/ /_  __/ / / / __ \/ __ \
  \__ \/ __/ _ \/ __ '/ __  / / / / / / / / / / /_/ /
 ___/ / /_/  __/ /_/ / /_/ / /_/ / /_/ / /_/ / ____/
/____/\__/\___/\__,_/\__,_/\__, /\____/_____/_/
                          /____/                     `

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	return "\n" + style.Render(ascii) + "\n"
}
