package domain

// CanMutate: единственное правило владения. Менять действие может только его автор.
// Сравнивается заявленная клиентом личность, а не серверная сессия.
func CanMutate(a *Action, claimed Identity) bool {
	if a == nil || !claimed.Valid() {
		return false
	}
	return a.OwnerID == claimed
}
