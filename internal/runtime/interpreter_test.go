package runtime

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moba-lang/internal/diag"
	"moba-lang/internal/lexer"
	"moba-lang/internal/parser"
)

// runSource parses and executes source code, returning captured output and
// any runtime error. Lexer and parser diagnostics fail the test.
func runSource(t *testing.T, source string, opts ...Option) (string, error) {
	t.Helper()
	out, _, err := runWith(t, source, opts...)
	return out, err
}

func runWith(t *testing.T, source string, opts ...Option) (string, *Interpreter, error) {
	t.Helper()
	tokens, lexDiags := lexer.FromText(source).Tokenize()
	require.Empty(t, lexDiags, diag.Join(lexDiags))
	prog, parseDiags := parser.New(tokens).ParseProgram()
	require.Empty(t, parseDiags, diag.Join(parseDiags))

	var buf bytes.Buffer
	opts = append([]Option{WithExporter(&MemoryExporter{})}, opts...)
	interp := NewInterpreter(&buf, opts...)
	err := interp.EvaluateProgram(prog)
	return buf.String(), interp, err
}

func expectOutput(t *testing.T, source, expected string) {
	t.Helper()
	out, err := runSource(t, source)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimRight(expected, "\n"), strings.TrimRight(out, "\n"))
}

func expectError(t *testing.T, source, contains string) error {
	t.Helper()
	_, err := runSource(t, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), contains)
	return err
}

// ---- Expressions ----

func TestPrintLiteral(t *testing.T) {
	expectOutput(t, `print(42);`, "42\n")
	expectOutput(t, `print("hello", "world");`, "hello world\n")
	expectOutput(t, `print(nil, true);`, "nil true\n")
}

func TestArithmetic(t *testing.T) {
	expectOutput(t, `print(1 + 2 * 3);`, "7\n")
	expectOutput(t, `print((1 + 2) * 3);`, "9\n")
	expectOutput(t, `print(10 / 4);`, "2.5\n")
	expectOutput(t, `print(-3 + 1);`, "-2\n")
	expectOutput(t, `print("mo" + "ba");`, "moba\n")
}

func TestDomainLiterals(t *testing.T) {
	expectOutput(t, `print(50%);`, "0.5\n")
	expectOutput(t, `print(5s);`, "5\n")
	expectOutput(t, `print(200 * 25%);`, "50\n")
}

func TestTypeErrors(t *testing.T) {
	err := expectError(t, `print(1 + "a");`, "Operands must be two numbers or two strings.")
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	expectError(t, `print(1 < "a");`, "Operands must be numbers.")
	expectError(t, `print("a" * 2);`, "Operands must be numbers.")
	expectError(t, `print(-"a");`, "Operand must be a number.")
}

func TestDivisionByZero(t *testing.T) {
	err := expectError(t, "\nprint(1 / 0);", "Division by zero.")
	assert.Equal(t, "[line 2] Error: Division by zero.", err.Error())
	assert.True(t, errors.Is(err, ErrDivisionByZero))

	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "E3003", rerr.Diagnostic().Code)
}

func TestEquality(t *testing.T) {
	expectOutput(t, `
print(1 == 1);
print(1 == "1");
print([1, 2] == [1, 2]);
print(nil != false);
`, "true\nfalse\ntrue\ntrue\n")
}

func TestTruthiness(t *testing.T) {
	expectOutput(t, `
if (0) { print("zero is truthy"); }
if ("") { print("empty string is truthy"); }
if (nil) { print("unreachable"); } else { print("nil is falsy"); }
print(!false);
`, "zero is truthy\nempty string is truthy\nnil is falsy\ntrue\n")
}

func TestLogicalShortCircuit(t *testing.T) {
	expectOutput(t, `
print(nil or "fallback");
print(false and missing);
print(1 and 2);
`, "fallback\nfalse\n2\n")
}

func TestLists(t *testing.T) {
	expectOutput(t, `
set xs = [1, "two", 3];
print(xs);
print(len(xs));
print(append(xs, 4));
print(len(xs));
`, "[1, \"two\", 3]\n3\n[1, \"two\", 3, 4]\n3\n")
}

// ---- Variables and scopes ----

func TestVarDecl(t *testing.T) {
	expectOutput(t, `
set x = 10;
const MAX_LEVEL = 25;
const number ratio = 0.75;
print(x, MAX_LEVEL, ratio);
`, "10 25 0.75\n")
}

func TestConstAssignmentError(t *testing.T) {
	err := expectError(t, "const x = 1;\nx = 2;", "Cannot assign to constant 'x'.")
	assert.True(t, errors.Is(err, ErrConstAssignment))

	expectError(t, "const x = 1;\nset x = 2;", "Cannot redeclare constant 'x'.")
	expectError(t, "const x = 1;\n{ x += 1; }", "Cannot assign to constant 'x'.")
}

func TestUndefinedVariable(t *testing.T) {
	err := expectError(t, `print(y);`, "Undefined variable 'y'.")
	assert.True(t, errors.Is(err, ErrUndefinedVariable))
	expectError(t, `{ y = 1; }`, "Undefined variable 'y'.")
	expectError(t, `nothing(1);`, "Undefined function 'nothing'.")
}

func TestBlockScoping(t *testing.T) {
	expectOutput(t, `
set x = 1;
{
  set x = 2;
  print(x);
}
print(x);
{
  x = 5;
}
print(x);
`, "2\n1\n5\n")
}

func TestCompoundAssignment(t *testing.T) {
	expectOutput(t, `
set n = 1;
{
  n += 2;
  n *= 3;
  n--;
  n /= 2;
}
print(n);
`, "4\n")
}

func TestAssignmentExpression(t *testing.T) {
	expectOutput(t, `
set a = 0;
set b = 0;
{ print(a = b = 3); }
print(a, b);
`, "3\n3 3\n")
}

// ---- Control flow ----

func TestIfElseChain(t *testing.T) {
	expectOutput(t, `
Functions {
  function grade(n) {
    if (n >= 90) {
      return "A";
    } else if (n >= 50) {
      return "B";
    } else {
      return "C";
    }
  }
}
print(grade(95), grade(60), grade(10));
`, "A B C\n")
}

func TestWhileBreakContinue(t *testing.T) {
	expectOutput(t, `
set i = 0;
while (true) {
  i++;
  if (i == 2) { continue; }
  if (i > 4) { break; }
  print(i);
}
`, "1\n3\n4\n")
}

func TestForLoops(t *testing.T) {
	expectOutput(t, `
for (x in [1, 2, 3]) { print(x * 2); }
for (c in "ab") { print(c); }
for (n in seq(1, 3)) { print(n); }
`, "2\n4\n6\na\nb\n1\n2\n3\n")
}

func TestForOverRecordKeys(t *testing.T) {
	expectOutput(t, `
Creeps { creep Goblin { hp: 100, speed: 300 } }
for (k in Goblin) { print(k); }
print(keys(Goblin));
`, "hp\nspeed\n[\"hp\", \"speed\"]\n")
}

func TestNotIterable(t *testing.T) {
	err := expectError(t, `for (x in 5) { print(x); }`, "Can only iterate over lists, records and strings, got number.")
	assert.True(t, errors.Is(err, ErrNotIterable))
}

func TestLoopLimit(t *testing.T) {
	_, err := runSource(t, `while (true) { }`, WithMaxLoopIterations(10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoopLimit))
	assert.Contains(t, err.Error(), "Loop exceeded 10 iterations.")

	_, err = runSource(t, `for (x in seq(1, 20)) { }`, WithMaxLoopIterations(10))
	assert.True(t, errors.Is(err, ErrLoopLimit))
}

func TestTickLimit(t *testing.T) {
	_, err := runSource(t, `tick(11);`, WithMaxLoopIterations(10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoopLimit))
	assert.Contains(t, err.Error(), "tick() would advance more than 10 seconds.")

	out, err := runSource(t, `print(tick(10));`, WithMaxLoopIterations(10))
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)

	err = expectError(t, `tick(2000000);`, "tick() would advance more than 1000000 seconds.")
	assert.True(t, errors.Is(err, ErrLoopLimit))

	_, err = runSource(t, `
set big = 1000000000;
tick(big * big * big * big * big * big * big * big);
`, WithMaxLoopIterations(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick() seconds out of range")
}

func TestStraySignals(t *testing.T) {
	expectError(t, `return 1;`, "Cannot return from top-level code.")
	expectError(t, `break;`, "'break' outside of a loop.")
	expectError(t, `{ continue; }`, "'continue' outside of a loop.")
	expectError(t, `
Functions { function f() { break; } }
f();
`, "'break' outside of a loop.")
}

// ---- Functions ----

func TestFunctions(t *testing.T) {
	expectOutput(t, `
Functions {
  function add(number a, number b): number { return a + b; }
  function noop() { }
}
print(add(2, 3));
print(add(b: 10, a: 1));
print(add(1, b: 4));
print(noop());
`, "5\n11\n5\nnil\n")
}

func TestFunctionArity(t *testing.T) {
	src := "Functions { function add(a, b) { return a + b; } }\n"
	err := expectError(t, src+`add(1);`, "Expected 2 arguments but got 1.")
	assert.True(t, errors.Is(err, ErrArity))
	expectError(t, src+`add(1, 2, 3);`, "Expected 2 arguments but got 3.")
	expectError(t, src+`add(1, a: 2);`, "Parameter 'a' bound twice.")
	expectError(t, src+`add(c: 1, b: 2);`, "Unknown parameter 'c' for 'add'.")
	expectError(t, `print(len(1, 2));`, "Expected 1 arguments but got 2.")
	expectError(t, `print(len(x: 1));`, "Native 'len' does not take named arguments.")
}

func TestRecursion(t *testing.T) {
	expectOutput(t, `
Functions {
  function fib(n) {
    if (n < 2) { return n; }
    return fib(n - 1) + fib(n - 2);
  }
}
print(fib(15));
`, "610\n")
}

func TestCallDepthLimit(t *testing.T) {
	_, err := runSource(t, `
Functions { function down(n) { return down(n + 1); } }
down(0);
`, WithMaxCallDepth(50))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCallDepth))
}

func TestFunctionsSeeGlobals(t *testing.T) {
	expectOutput(t, `
set bonus = 10;
Functions {
  function withBonus(x) { return x + bonus; }
  function bump() { bonus += 5; }
}
bump();
print(withBonus(1));
`, "16\n")
}

func TestNotCallable(t *testing.T) {
	err := expectError(t, "set x = 1;\nx(2);", "Can only call functions, 'x' is a number.")
	assert.True(t, errors.Is(err, ErrNotCallable))
}

func TestUserFunctionShadowsNative(t *testing.T) {
	expectOutput(t, `
Functions { function str(x) { return "custom"; } }
print(str(1));
`, "custom\n")
}

// ---- Pipelines ----

func TestPipeline(t *testing.T) {
	expectOutput(t, `
Functions {
  function double(x) { return x * 2; }
  function add(a, b) { return a + b; }
}
print(3 |> double() |> add(1));
print("a" |> str());
`, "7\na\n")
}

func TestPipelineRequiresCall(t *testing.T) {
	err := expectError(t, `print(1 |> 2);`, "Right side of '|>' must be a function call.")
	assert.True(t, errors.Is(err, ErrUnsupportedOperator))
}

func TestEffectPipelineValue(t *testing.T) {
	expectOutput(t, `
StatusEffects { statusEffect Slow { duration: 2s } }
print(damage(40) |> Slow(2s));
print(typeOf(heal(5)));
`, "<effect damage(40) |> Slow(2)>\neffect\n")
}

// ---- Heroes and world ----

const axeSource = `
Heroes {
  hero Axe {
    set role = "tank";
    heroStat { hp: 600, mana: hp / 2, armor: 5 }
    abilities {
      ability Cleave {
        type: active
        cooldown: 4
        mana_cost: 50
        range: 150
        damage_type: physical
        behavior: { apply damage(100) to target; }
      }
    }
  }
}
Creeps { creep Goblin { hp: 300 } }
`

func TestHeroDescriptor(t *testing.T) {
	expectOutput(t, axeSource+`
print(Axe.role);
print(Axe.mana);
print(Axe.name, Axe.kind);
print(len(Axe.abilities));
`, "tank\n300\nAxe hero\n1\n")
}

func TestCastAbility(t *testing.T) {
	expectOutput(t, axeSource+`
print(cast(Axe, "Cleave", Goblin));
print(entity("Goblin").hp, entity("Axe").mana);
print(cast(Axe, "Cleave", Goblin));
tick(4);
print(cast(Axe, "Cleave", "Goblin"));
print(stat("Goblin", "hp"));
`, "true\n200 250\nfalse\ntrue\n100\n")
}

func TestCastWithoutMana(t *testing.T) {
	expectOutput(t, `
Heroes {
  hero Lion {
    heroStat { hp: 400, mana: 20 }
    abilities { ability Finger { mana_cost: 100 behavior: damage(500) } }
  }
}
print(cast(Lion, "Finger", Lion));
print(entity("Lion").hp);
`, "false\n400\n")

	expectError(t, axeSource+`cast(Axe, "Nope", Goblin);`, "Hero 'Axe' has no ability 'Nope'.")
}

func TestStatusEffectLifecycle(t *testing.T) {
	expectOutput(t, `
StatusEffects {
  statusEffect Burn {
    type: debuff
    duration: 3s
    on_apply: { print("burning " + self.name); }
    on_tick: { apply damage(10) to self; }
    on_expire: { print("burn faded from " + self.name); }
  }
}
Creeps { creep Goblin { hp: 100 } }
apply Burn() to Goblin;
tick(1);
print(entity("Goblin").hp, entity("Goblin").effects);
tick(2);
print(entity("Goblin").hp, entity("Goblin").effects);
`, "burning Goblin\n90 [\"Burn\"]\nburn faded from Goblin\n70 []\n")
}

func TestStatusEffectRefreshAndDuration(t *testing.T) {
	out, interp, err := runWith(t, `
StatusEffects { statusEffect Stun { type: debuff } }
Creeps { creep Goblin { hp: 100 } creep Troll { hp: 500 } }
apply Stun(2s) to Goblin;
apply Stun(4s) to Goblin;
apply Stun(1, duration: 5) to Troll;
dump();
`)
	require.NoError(t, err)
	assert.Equal(t, "=== WORLD STATE ===\n"+
		"Entity(Goblin, hp=100) effects=[Stun 4s]\n"+
		"Entity(Troll, hp=500) effects=[Stun 5s]\n", out)

	troll, ok := interp.World().Lookup("Troll")
	require.True(t, ok)
	ae, ok := troll.Effect("Stun")
	require.True(t, ok)
	assert.Equal(t, []Value{NumberVal(1)}, ae.Args)
}

func TestAbilityPipelineBehavior(t *testing.T) {
	expectOutput(t, `
Heroes {
  hero Lina {
    heroStat { hp: 500, mana: 400 }
    abilities {
      ability Blast { mana_cost: 100 behavior: damage(40) |> Slow(2s) }
    }
  }
}
StatusEffects {
  statusEffect Slow { type: debuff on_apply: modify("speed", -100) }
}
Creeps { creep Goblin { hp: 100, speed: 300 } }
cast(Lina, "Blast", Goblin);
dump();
`, "=== WORLD STATE ===\n"+
		"Entity(Lina, hp=500, mana=300)\n"+
		"Entity(Goblin, hp=60, speed=200) effects=[Slow 2s]\n")
}

func TestCasterContext(t *testing.T) {
	expectOutput(t, `
Heroes {
  hero Lina {
    heroStat { hp: 500 }
    abilities { ability Mark { behavior: { apply Marked() to target; } } }
  }
}
StatusEffects {
  statusEffect Marked {
    duration: 2s
    on_apply: { print(self.name + " marked by " + caster.name); }
  }
}
Creeps { creep Goblin { hp: 100 } }
cast(Lina, "Mark", Goblin);
`, "Goblin marked by Lina\n")
}

func TestHealCapsAtBase(t *testing.T) {
	expectOutput(t, `
Creeps { creep Goblin { hp: 100 } }
apply damage(30) to Goblin;
apply heal(50) to Goblin;
print(stat(Goblin, "hp"));
apply damage(500) to Goblin;
print(stat(Goblin, "hp"));
apply set_stat("hp", 7) to Goblin;
print(stat(Goblin, "hp"));
`, "100\n0\n7\n")
}

func TestApplyUserFunction(t *testing.T) {
	expectOutput(t, `
Functions {
  function burst(n) { return damage(n) |> heal(5); }
  function report() { print("hit " + target.name); }
}
Creeps { creep Goblin { hp: 100 } }
apply burst(30) to Goblin;
apply report() to Goblin;
print(stat(Goblin, "hp"));
`, "hit Goblin\n75\n")
}

func TestApplyErrors(t *testing.T) {
	src := "Creeps { creep Goblin { hp: 100 } }\n"
	err := expectError(t, src+`apply Nope() to Goblin;`, "Unknown effect 'Nope'.")
	assert.True(t, errors.Is(err, ErrUnknownEffect))

	err = expectError(t, src+`apply damage(1) to Nobody;`, "Unknown entity 'Nobody'.")
	assert.True(t, errors.Is(err, ErrUnknownEntity))

	err = expectError(t, src+`apply damage(1) to self;`, "No active 'self' in this context.")
	assert.True(t, errors.Is(err, ErrNoContext))

	expectError(t, `print(target);`, "No active 'target' in this context.")
	expectError(t, src+`apply damage("x") to Goblin;`, "damage: amount must be a number, got string")
}

func TestEquipItem(t *testing.T) {
	expectOutput(t, `
Heroes { hero Lina { heroStat { hp: 500 } } }
Items {
  item Dagger {
    damage: 25
    passive: { behavior: modify("speed", 10) }
  }
}
equip(Lina, Dagger);
print(entity("Lina").items);
print(stat(Lina, "damage"), stat(Lina, "speed"));
`, "[\"Dagger\"]\n25 10\n")
}

func TestArenaTeams(t *testing.T) {
	expectOutput(t, `
Arena {
  team Radiant {
    core AncientR;
    turrets { turret T1 { hp: 1300 } T2 { hp: 1600 } }
  }
  core AncientR { hp: 4500 }
}
print(Radiant.core);
print(len(Radiant.turrets));
print(entity("T2").team, entity("AncientR").team);
print(T1.hp);
`, "AncientR\n2\nRadiant Radiant\n1300\n")
}

func TestExport(t *testing.T) {
	exp := &MemoryExporter{}
	out, _, err := runWith(t, `
Creeps { creep Goblin { hp: 100, speed: 300 } }
export("goblin.json", Goblin);
export("goblin.yaml", Goblin);
export("notes.txt", "gg");
`, WithExporter(exp))
	require.NoError(t, err)
	assert.Equal(t, "Exported to goblin.json\nExported to goblin.yaml\nExported to notes.txt\n", out)

	assert.JSONEq(t, `{"kind":"creep","name":"Goblin","hp":100,"speed":300}`, exp.Files["goblin.json"])
	assert.Equal(t, "kind: creep\nname: Goblin\nhp: 100\nspeed: 300\n", exp.Files["goblin.yaml"])
	assert.Equal(t, "gg\n", exp.Files["notes.txt"])
}

func TestEvaluateExpression(t *testing.T) {
	tokens, _ := lexer.FromText(`len("abc") + 1`).Tokenize()
	expr, diags := parser.New(tokens).ParseExpression()
	require.Empty(t, diags)

	interp := NewInterpreter(&bytes.Buffer{})
	val, err := interp.Evaluate(expr)
	require.NoError(t, err)
	assert.Equal(t, NumberVal(4), val)
}

func TestDeclarationOrder(t *testing.T) {
	// Top-level statements run after every declaration, so they see
	// functions and entities declared later in the file.
	expectOutput(t, `
print(late(2));
set base = 40;
Functions { function late(x) { return base + x; } }
`, "42\n")
}

func TestImports(t *testing.T) {
	_, interp, err := runWith(t, "import Combat;\nimport Items;\nset x = 1;")
	require.NoError(t, err)
	assert.Equal(t, []string{"Combat", "Items"}, interp.Imports())
}
