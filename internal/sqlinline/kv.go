package sqlinline

const QSelectKV = `--sql 0d4be588-304f-48c0-bb74-cc1fc1447bce
select value
from kv_entries
where key = $1::text
  and (expires_at is null or expires_at > now());
`

const QUpsertKV = `--sql 2b2cfdde-0530-4566-b8ae-66c668f42b4f
insert into kv_entries (key, value, expires_at, created_at, updated_at)
values ($1::text, $2::bytea, $3::timestamptz, now(), now())
on conflict (key) do update set
    value = excluded.value,
    expires_at = excluded.expires_at,
    updated_at = now();
`

const QInsertKVIfAbsent = `--sql 5e7b2a91-0c4d-4f38-9a62-d1b7e3f08c54
insert into kv_entries (key, value, expires_at, created_at, updated_at)
values ($1::text, $2::bytea, $3::timestamptz, now(), now())
on conflict (key) do update set
    value = excluded.value,
    expires_at = excluded.expires_at,
    created_at = now(),
    updated_at = now()
where kv_entries.expires_at is not null
  and kv_entries.expires_at <= now();
`

const QDeleteKV = `--sql 82e1f0c4-539f-4502-aa73-48fa82fac53c
delete from kv_entries
where key = $1::text;
`
