package queue

import (
    "encoding/json"
    "fmt"
)

// Decode unmarshals a message body into T.  Failures wrap ErrMalformed.
func Decode[T any](body []byte) (T, error) {
    var v T
    if err := json.Unmarshal(body, &v); err != nil {
        return v, fmt.Errorf("%w: %v", ErrMalformed, err)
    }
    return v, nil
}
