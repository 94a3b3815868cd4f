package application

import "fmt"

// PlaceholderResponse stands in for a reflection when no model is loaded.
func PlaceholderResponse(prompt string) string {
	return fmt.Sprintf(`⟡ Reflection (Placeholder Mode)

I received your input: %q

**Note:** No local model is loaded. This is a placeholder response.

To enable full reflective capabilities:
1. Download a GGUF model (for example Phi-3 Mini, ~2.3GB)
2. Serve it with llama-server and run: mirror settings set --model <path>
3. Start a new chat

Once loaded, reflections follow the MirrorDNA protocol with:
- Master Citation context awareness
- Session continuity tracking
- AHP (Anti-Hallucination Protocol): Cite or Silence
- GlyphSig symbolic communication`, prompt)
}
