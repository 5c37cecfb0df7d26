package main

import (
	// Register plugins via side-effects
	_ "bugforge/internal/encode/clash"
	_ "bugforge/internal/encode/singbox"
	_ "bugforge/internal/encode/uri"
	_ "bugforge/internal/publishers/file"
	_ "bugforge/internal/publishers/stdout"
	_ "bugforge/internal/sources/file"
	_ "bugforge/internal/sources/http"
)

func main() {
	Execute()
}
