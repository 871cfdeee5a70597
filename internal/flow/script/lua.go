package script

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"
)

type (
	// LuaEnv provides a sandboxed Lua predicate environment with state
	// pooling and a compile cache keyed by wrapped source
	LuaEnv struct {
		statePool chan *lua.State
		compiled  sync.Map // map[string]*compiledLua
	}

	compiledLua struct {
		bytecode []byte
		argNames []string
	}
)

const (
	luaStatePoolSize    = 10
	luaGlobalTableIndex = -2
	luaArrayTableIndex  = -3
	luaMapTableIndex    = -3
	luaArgLocalTemplate = "local %s = select(%d, ...)"
	luaGlobalTableName  = "_G"
	luaSeparator        = "\n"
)

var (
	ErrLuaLoad      = errors.New("lua load error")
	ErrLuaExecution = errors.New("lua execution error")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

// NewLuaEnv creates a Lua predicate environment with a state pool for
// efficient script reuse
func NewLuaEnv() *LuaEnv {
	return &LuaEnv{
		statePool: make(chan *lua.State, luaStatePoolSize),
	}
}

// EvaluatePredicate compiles the predicate on first use and executes it
// with the inputs bound as named locals, returning the boolean result
func (e *LuaEnv) EvaluatePredicate(script string, inputs Inputs) (bool, error) {
	proc, err := e.compileFor(script, inputs)
	if err != nil {
		return false, err
	}

	L := e.getState()
	defer e.returnState(L)

	e.setupSandbox(L)
	if err := L.Load(
		bytes.NewReader(proc.bytecode), "predicate", "b",
	); err != nil {
		return false, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	for _, name := range proc.argNames {
		goToLua(L, inputs[name])
	}

	if err := L.ProtectedCall(len(proc.argNames), 1, 0); err != nil {
		return false, fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}

	result := L.ToBoolean(-1)
	L.Pop(1)
	return result, nil
}

func (e *LuaEnv) compileFor(script string, inputs Inputs) (*compiledLua, error) {
	argNames := sortedNames(inputs)
	src := wrapSource(script, argNames)

	if cached, ok := e.compiled.Load(src); ok {
		return cached.(*compiledLua), nil
	}

	proc, err := e.compile(src, argNames)
	if err != nil {
		return nil, err
	}
	e.compiled.Store(src, proc)
	return proc, nil
}

func (e *LuaEnv) compile(src string, argNames []string) (*compiledLua, error) {
	L := lua.NewState()
	e.setupSandbox(L)

	if err := lua.LoadString(L, src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, err
	}

	return &compiledLua{
		bytecode: buf.Bytes(),
		argNames: argNames,
	}, nil
}

func (e *LuaEnv) setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func (e *LuaEnv) getState() *lua.State {
	select {
	case L := <-e.statePool:
		return L
	default:
		return lua.NewState()
	}
}

func (e *LuaEnv) returnState(L *lua.State) {
	L.SetTop(0)

	select {
	case e.statePool <- L:
	default:
	}
}

func wrapSource(script string, argNames []string) string {
	argLocals := make([]string, len(argNames))
	for i, name := range argNames {
		argLocals[i] = fmt.Sprintf(luaArgLocalTemplate, name, i+1)
	}
	return strings.Join([]string{
		strings.Join(argLocals, luaSeparator), script,
	}, luaSeparator)
}

func sortedNames(inputs Inputs) []string {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func goToLua(L *lua.State, value any) {
	switch v := value.(type) {
	case string:
		L.PushString(v)
	case bool:
		L.PushBoolean(v)
	case int:
		L.PushInteger(v)
	case int64:
		L.PushInteger(int(v))
	case float64:
		L.PushNumber(v)
	case []any:
		pushLuaArray(L, v)
	case map[string]any:
		pushLuaMap(L, v)
	case nil:
		L.PushNil()
	default:
		L.PushString(fmt.Sprintf("%v", v))
	}
}

func pushLuaArray(L *lua.State, arr []any) {
	L.CreateTable(len(arr), 0)
	for i, item := range arr {
		L.PushInteger(i + 1)
		goToLua(L, item)
		L.SetTable(luaArrayTableIndex)
	}
}

func pushLuaMap(L *lua.State, m map[string]any) {
	L.CreateTable(0, len(m))
	for k, val := range m {
		L.PushString(k)
		goToLua(L, val)
		L.SetTable(luaMapTableIndex)
	}
}
