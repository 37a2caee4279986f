package manager

import (
	"github.com/Othernet-Project/fsal/pkg/ondd"
	"github.com/Othernet-Project/fsal/pkg/paths"
)

// HandleNotifications processes a batch of file_complete notifications from
// the delivery subsystem. A failure on one notification never interrupts
// processing of the rest of the batch.
func (m *Manager) HandleNotifications(notifications []ondd.Notification) {
	for _, notification := range notifications {
		relPath, ok := m.validate(notification.Path)
		if !ok {
			m.logger.Warnf("ignoring notification with invalid path: %s", notification.Path)
			continue
		}
		m.scheduler.Schedule("notification "+relPath, func() {
			m.clearFSOCache()
			m.indexDelivery(relPath)
		})
	}
}

// indexDelivery runs on the scheduler worker: if the delivered path is a
// bundle it is unpacked and replaced by the common ancestor of its extracted
// entries, then the smallest indexed subtree containing the change is
// re-scanned.
func (m *Manager) indexDelivery(relPath string) {
	for i := range m.basePaths {
		if m.extractors[i].IsBundle(relPath) {
			ok, extracted := m.extractors[i].Extract(relPath)
			if ok && len(extracted) > 0 {
				if ancestor := paths.CommonAncestor(extracted...); ancestor != "" {
					relPath = ancestor
				} else {
					relPath = paths.Root
				}
			}
			break
		}
	}
	m.updateDB(m.deepestIndexedParent(relPath))
}
