package cookiejar

import (
	"encoding/json"
	"fmt"
)

type snapshot struct {
	Cookies []Entry `json:"cookies"`
}

// Encode serializes every live cookie into an opaque string suitable for a
// session store. Session cookies are included, the portal's auth cookies
// carry no Expires attribute and must survive the round trip.
func Encode(j *Jar) (string, error) {
	buf, err := json.Marshal(snapshot{Cookies: j.Entries()})
	if err != nil {
		return "", fmt.Errorf("encode cookie jar: %w", err)
	}
	return string(buf), nil
}

// Decode rebuilds a jar from a serialized snapshot. An empty string yields an
// empty jar.
func Decode(serialized string) (*Jar, error) {
	j := New()
	if serialized == "" {
		return j, nil
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(serialized), &snap); err != nil {
		return nil, fmt.Errorf("decode cookie jar: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, e := range snap.Cookies {
		e.seq = j.nextSeq
		j.nextSeq++
		j.entries[e.key()] = e
	}
	return j, nil
}
