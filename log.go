package box

import (
	"log"
	"os"
)

// Logger receives diagnostic traces from the writer's section placement, the
// reader's checksum verification and the filter pipeline's reference-digest
// caching. It defaults to a standard logger writing to stderr; callers may
// replace it wholesale.
var Logger = log.New(os.Stderr, "box: ", log.LstdFlags)
