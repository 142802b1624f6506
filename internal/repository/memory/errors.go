package memory

import "errors"

var errForeignKey = errors.New("memory: foreign key violation")
