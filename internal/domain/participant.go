package domain

import "strings"

// Identity: заявленный клиентом идентификатор участника, сервер его не проверяет.
type Identity string

func (i Identity) Valid() bool {
	return strings.TrimSpace(string(i)) != ""
}

func (i Identity) String() string { return string(i) }
