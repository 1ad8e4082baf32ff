package drafter

import (
	"fmt"
	"strings"
)

// WelcomeMessage 新会话的第一条助手消息
const WelcomeMessage = `✨ **Welcome to AnimeForge!**

I'm your AI Co-Creator, and I'm thrilled to help you bring your anime vision to life!

Let's start with the basics. What kind of anime would you like to create?

**Some ideas to spark your imagination:**
• 🗡️ An epic shonen adventure with powerful battles
• 💕 A heartwarming romance with supernatural elements
• 🌌 A sci-fi thriller set in a dystopian future
• 🏫 A slice-of-life story in a magical academy
• 🔮 A dark fantasy with complex moral choices

Tell me your vision - even a rough idea works! I'll help you shape it into something amazing.`

// GenreFor 按关键词猜测题材
func GenreFor(input string) string {
	switch {
	case strings.Contains(input, "romance"):
		return "Romance / Fantasy"
	case strings.Contains(input, "hero"):
		return "Shonen / Action"
	default:
		return "Fantasy / Adventure"
	}
}

// CannedReplies 模型不可用时的候选回复
func CannedReplies(input string) []string {
	return []string{
		fmt.Sprintf(`That's a fantastic concept! I love the direction you're taking.

Let me help you develop this further. Here's what I'm envisioning:

**Genre:** %s

**Core Conflict:** A powerful internal and external struggle that drives the narrative.

Now, let's dig deeper:

1. **Setting:** Where does this story take place? A modern city with hidden magic? A completely fantastical world? A future Earth?

2. **Time Period:** Is this contemporary, historical, or futuristic?

3. **Mood:** Should this feel dark and gritty, lighthearted and fun, or somewhere in between?

What speaks to you?`, GenreFor(input)),
		`Excellent choice! I can already see this anime taking shape.

**Working Title Ideas:**
• "Echoes of the Forgotten"
• "The Last Horizon"
• "Shattered Stars"

Let's establish your world's rules:

**Key Questions:**
• What makes your world unique? (Magic system, technology, society structure)
• What's the biggest threat or mystery?
• What resources or powers are people fighting over?

Tell me more about the world you're imagining! 🌟`,
	}
}
