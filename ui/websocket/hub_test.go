package websocket

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu       sync.Mutex
	received []Notification
	sendErr  error
	closed   bool
}

func (f *fakeTransport) Send(n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.received = append(f.received, n)
	return nil
}

func (f *fakeTransport) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeTransport) notifications() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.received))
	copy(out, f.received)
	return out
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(10)
	a := &fakeTransport{}
	b := &fakeTransport{}
	hub.Register("a", a)
	hub.Register("b", b)

	hub.Broadcast(TypeNewMessage, map[string]any{"chat_id": "c1"})

	for _, ft := range []*fakeTransport{a, b} {
		got := ft.notifications()
		require.NotEmpty(t, got)
		last := got[len(got)-1]
		assert.Equal(t, TypeNewMessage, last.Type)
		assert.Equal(t, "c1", last.Payload["chat_id"])
		assert.NotEmpty(t, last.ID)
		assert.False(t, last.Timestamp.IsZero())
	}
}

// Un cliente que se conecta tarde recibe la historia en orden, del más
// antiguo al más reciente.
func TestRegisterReplaysHistoryOldestFirst(t *testing.T) {
	hub := NewHub(10)
	for i := 0; i < 3; i++ {
		hub.Broadcast(TypeStatusChange, map[string]any{"seq": i})
	}

	late := &fakeTransport{}
	hub.Register("late", late)

	got := late.notifications()
	// 3 replays + el aviso de conexión directo.
	require.Len(t, got, 4)
	for i := 0; i < 3; i++ {
		assert.Equal(t, i, got[i].Payload["seq"])
	}
	assert.Equal(t, TypeConnectionStatus, got[3].Type)
}

func TestHistoryIsBounded(t *testing.T) {
	hub := NewHub(5)
	for i := 0; i < 12; i++ {
		hub.Broadcast(TypeStatusChange, map[string]any{"seq": i})
	}

	history := hub.History()
	require.Len(t, history, 5)
	assert.Equal(t, 7, history[0].Payload["seq"])
	assert.Equal(t, 11, history[4].Payload["seq"])
}

func TestRegisterReplacesDuplicateID(t *testing.T) {
	hub := NewHub(10)
	old := &fakeTransport{}
	hub.Register("dup", old)
	fresh := &fakeTransport{}
	hub.Register("dup", fresh)

	assert.Equal(t, 1, hub.ClientCount())
	assert.True(t, old.closed)

	hub.Broadcast(TypeSystemAlert, map[string]any{"msg": "hola"})
	got := fresh.notifications()
	assert.Equal(t, TypeSystemAlert, got[len(got)-1].Type)
}

func TestRemoveIsIdempotent(t *testing.T) {
	hub := NewHub(10)
	ft := &fakeTransport{}
	hub.Register("x", ft)

	hub.Remove("x")
	hub.Remove("x")
	hub.Remove("nunca-existió")
	assert.Equal(t, 0, hub.ClientCount())
}

// Un cliente muerto se expulsa y los demás siguen recibiendo.
func TestBroadcastRemovesFailedClient(t *testing.T) {
	hub := NewHub(10)
	dead := &fakeTransport{sendErr: errors.New("broken pipe")}
	alive := &fakeTransport{}
	hub.Register("alive", alive)
	hub.clients["dead"] = dead

	hub.Broadcast(TypeNewMessage, map[string]any{"chat_id": "c1"})

	assert.Equal(t, 1, hub.ClientCount())
	assert.True(t, dead.closed)
	got := alive.notifications()
	assert.Equal(t, TypeNewMessage, got[len(got)-1].Type)
}

func TestSendTo(t *testing.T) {
	hub := NewHub(10)
	ft := &fakeTransport{}
	hub.Register("x", ft)

	ok := hub.SendTo("x", TypeConnectionStatus, map[string]any{"status": "ping"})
	assert.True(t, ok)
	assert.False(t, hub.SendTo("ghost", TypeConnectionStatus, nil))

	// Los avisos de conexión quedan fuera de la historia compartida.
	assert.Empty(t, hub.History())

	// Cualquier otro tipo enviado directo sí se guarda, igual que un
	// broadcast, para que un cliente que reconecte lo reciba.
	require.True(t, hub.SendTo("x", TypeNewMessage, map[string]any{"chat_id": "c9"}))
	history := hub.History()
	require.Len(t, history, 1)
	assert.Equal(t, TypeNewMessage, history[0].Type)
	assert.Equal(t, "c9", history[0].Payload["chat_id"])
}

type gatedTransport struct {
	fakeTransport
	entered chan struct{} // se cierra cuando arranca el primer Send
	resume  chan struct{} // el primer Send espera aquí
	once    sync.Once
}

func (g *gatedTransport) Send(n Notification) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.resume
	})
	return g.fakeTransport.Send(n)
}

// Un cliente que se registra con broadcasts en vuelo recibe la historia
// completa y su aviso de conexión antes que cualquier notificación en vivo.
func TestRegisterReplayFinishesBeforeLiveBroadcast(t *testing.T) {
	hub := NewHub(10)
	hub.Broadcast(TypeStatusChange, map[string]any{"seq": "h1"})
	hub.Broadcast(TypeStatusChange, map[string]any{"seq": "h2"})

	gt := &gatedTransport{entered: make(chan struct{}), resume: make(chan struct{})}

	registered := make(chan struct{})
	go func() {
		hub.Register("late", gt)
		close(registered)
	}()
	<-gt.entered // replay en curso, bloqueado a mitad

	broadcasted := make(chan struct{})
	go func() {
		hub.Broadcast(TypeNewMessage, map[string]any{"seq": "live"})
		close(broadcasted)
	}()

	// Margen para que el broadcast intente colarse antes de soltar el replay.
	time.Sleep(50 * time.Millisecond)
	close(gt.resume)
	<-registered
	<-broadcasted

	got := gt.notifications()
	require.Len(t, got, 4)
	assert.Equal(t, "h1", got[0].Payload["seq"])
	assert.Equal(t, "h2", got[1].Payload["seq"])
	assert.Equal(t, TypeConnectionStatus, got[2].Type)
	assert.Equal(t, "live", got[3].Payload["seq"])
}

func TestConcurrentBroadcastAndRegister(t *testing.T) {
	hub := NewHub(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			hub.Broadcast(TypeUserAction, map[string]any{"seq": i})
		}(i)
		go func(i int) {
			defer wg.Done()
			hub.Register(fmt.Sprintf("client-%d", i), &fakeTransport{})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, hub.ClientCount())
	assert.Len(t, hub.History(), 20)
}
