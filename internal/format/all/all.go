// Package all registers every built-in decoder with the default registry.
// Import it for its side effects.
package all

import (
	_ "github.com/52North/SOS-sub005/internal/format/fes"
	_ "github.com/52North/SOS-sub005/internal/format/gml"
	_ "github.com/52North/SOS-sub005/internal/format/om"
	_ "github.com/52North/SOS-sub005/internal/format/sml"
	_ "github.com/52North/SOS-sub005/internal/format/sos"
	_ "github.com/52North/SOS-sub005/internal/format/swecommon"
	_ "github.com/52North/SOS-sub005/internal/format/xsd"
)
