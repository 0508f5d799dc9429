package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"marlin/pkg/html"
	"marlin/pkg/script"
)

type fixture struct {
	bridge     *script.Bridge
	doc        *html.Document
	dispatcher *Dispatcher

	navigations []string
	submissions []*html.Node
}

func newFixture(t *testing.T, pageHTML string) *fixture {
	t.Helper()
	doc, err := html.Parse(pageHTML)
	require.NoError(t, err)

	f := &fixture{doc: doc}
	f.bridge = script.New(doc, nil, zaptest.NewLogger(t))
	f.dispatcher = NewDispatcher(f.bridge, Hooks{
		Navigate: func(href string) error {
			f.navigations = append(f.navigations, href)
			return nil
		},
		Submit: func(form *html.Node) error {
			f.submissions = append(f.submissions, form)
			return nil
		},
	}, zaptest.NewLogger(t))

	for _, fault := range f.bridge.LoadScripts() {
		t.Fatalf("page script failed: %v", fault)
	}
	return f
}

func (f *fixture) node(t *testing.T, tag string) *html.Node {
	t.Helper()
	for _, n := range html.Preorder(f.doc.Root) {
		if n.TagName == tag {
			return n
		}
	}
	t.Fatalf("no <%s> in document", tag)
	return nil
}

func TestClickFollowsLink(t *testing.T) {
	f := newFixture(t, `<a href="/next">go</a>`)
	require.NoError(t, f.dispatcher.Click(f.node(t, "a")))
	assert.Equal(t, []string{"/next"}, f.navigations)
}

func TestClickInsideLinkFollowsIt(t *testing.T) {
	f := newFixture(t, `<a href="/next"><span>go</span></a>`)
	require.NoError(t, f.dispatcher.Click(f.node(t, "span")))
	assert.Equal(t, []string{"/next"}, f.navigations)
}

func TestClickCanceledSuppressesNavigation(t *testing.T) {
	f := newFixture(t, `
		<a id="l" href="/next">go</a>
		<script>
			document.querySelectorAll("#l")[0].addEventListener("click", function(e) {
				e.preventDefault();
			});
		</script>
	`)
	require.NoError(t, f.dispatcher.Click(f.node(t, "a")))
	assert.Empty(t, f.navigations, "canceled click must not navigate")
}

func TestClickOutsideLinkNoNavigation(t *testing.T) {
	f := newFixture(t, `<div>plain</div>`)
	require.NoError(t, f.dispatcher.Click(f.node(t, "div")))
	assert.Empty(t, f.navigations)
}

func TestSubmitDefault(t *testing.T) {
	f := newFixture(t, `<form action="/save"><input></form>`)
	form := f.node(t, "form")
	require.NoError(t, f.dispatcher.SubmitForm(form))
	require.Len(t, f.submissions, 1)
	assert.Same(t, form, f.submissions[0])
}

func TestSubmitCanceled(t *testing.T) {
	f := newFixture(t, `
		<form id="f" action="/save"></form>
		<script>
			document.querySelectorAll("#f")[0].addEventListener("submit", function(e) {
				e.preventDefault();
			});
		</script>
	`)
	require.NoError(t, f.dispatcher.SubmitForm(f.node(t, "form")))
	assert.Empty(t, f.submissions)
}

// keydown models pre-mutation interception: it fires before the value
// write, so a listener observes the pre-keystroke value and may cancel the
// write entirely.
func TestKeyDownFiresBeforeValueWrite(t *testing.T) {
	f := newFixture(t, `
		<input id="i" value="ab">
		<script>
			var observed = null;
			document.querySelectorAll("#i")[0].addEventListener("keydown", function(e) {
				observed = this.getAttribute("value");
			});
		</script>
	`)
	input := f.node(t, "input")
	f.dispatcher.KeyDown(input, 'c')

	val, _ := input.GetAttribute("value")
	assert.Equal(t, "abc", val)
	require.NoError(t, f.bridge.LoadScript("check", `
		if (observed !== "ab") throw new Error("observed " + observed);
	`))
}

func TestKeyDownCanceledBlocksWrite(t *testing.T) {
	f := newFixture(t, `
		<input id="i" value="ab">
		<script>
			document.querySelectorAll("#i")[0].addEventListener("keydown", function(e) {
				e.preventDefault();
			});
		</script>
	`)
	input := f.node(t, "input")
	f.dispatcher.KeyDown(input, 'c')

	val, _ := input.GetAttribute("value")
	assert.Equal(t, "ab", val, "canceled keydown must leave the value untouched")
}

// "change" reports a value-already-changed fact: the write happens first,
// and cancellation cannot undo it.
func TestChangeFiresAfterValueWrite(t *testing.T) {
	f := newFixture(t, `
		<input id="i" value="old">
		<script>
			var observed = null;
			document.querySelectorAll("#i")[0].addEventListener("change", function(e) {
				observed = this.getAttribute("value");
				e.preventDefault();
			});
		</script>
	`)
	input := f.node(t, "input")
	f.dispatcher.CommitValue(input, "new")

	val, _ := input.GetAttribute("value")
	assert.Equal(t, "new", val, "preventDefault cannot undo a committed value")
	require.NoError(t, f.bridge.LoadScript("check", `
		if (observed !== "new") throw new Error("observed " + observed);
	`))
}

// A listener that throws is contained at the bridge boundary; the
// interaction's default action then proceeds as if uncanceled.
func TestThrowingListenerDefaultProceeds(t *testing.T) {
	f := newFixture(t, `
		<a id="l" href="/next">go</a>
		<script>
			document.querySelectorAll("#l")[0].addEventListener("click", function(e) {
				throw new Error("boom");
			});
		</script>
	`)
	require.NoError(t, f.dispatcher.Click(f.node(t, "a")))
	assert.Equal(t, []string{"/next"}, f.navigations)
}
